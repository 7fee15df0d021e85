// Package cache pushes finished-game summaries onto a Redis queue for
// out-of-process consumers (stats crunching, archival).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wordrush/wordrush/internal/protocol"
)

// DefaultQueueName is the Redis list results are pushed to.
const DefaultQueueName = "wordrush_results"

// ResultRecord is one finished game as queued for consumers.
type ResultRecord struct {
	Room      string                `json:"room"`
	Game      protocol.GameKind     `json:"game"`
	Info      protocol.PostGameInfo `json:"info"`
	Timestamp int64                 `json:"timestamp"`
}

// Publisher implements the game server's result sink on a Redis list.
type Publisher struct {
	log *logrus.Logger
	rdb *redis.Client
	key string
}

// Connect dials Redis using REDIS_ADDR (default "localhost:6379") and
// verifies the connection with a ping.
func Connect(ctx context.Context, log *logrus.Logger) (*Publisher, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	key := os.Getenv("RESULTS_QUEUE_NAME")
	if key == "" {
		key = DefaultQueueName
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &Publisher{log: log, rdb: rdb, key: key}, nil
}

// PublishResult queues one summary. Called off the room's hot path, so a
// failed push is only logged.
func (p *Publisher) PublishResult(room string, game protocol.GameKind, info protocol.PostGameInfo) {
	data, err := json.Marshal(ResultRecord{
		Room:      room,
		Game:      game,
		Info:      info,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		p.log.WithError(err).Error("marshal result record")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.rdb.RPush(ctx, p.key, data).Err(); err != nil {
		p.log.WithError(err).WithField("room", room).Warn("push result to redis")
	}
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
