// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/wordrush/wordrush/internal/auth"
	"github.com/wordrush/wordrush/internal/cache"
	"github.com/wordrush/wordrush/internal/database"
	"github.com/wordrush/wordrush/internal/game"
	"github.com/wordrush/wordrush/internal/handlers"
	"github.com/wordrush/wordrush/internal/middleware"
	"github.com/wordrush/wordrush/internal/words"
)

// statsRecorder folds finished games into the users table.
type statsRecorder struct {
	log *logrus.Logger
}

func (rec statsRecorder) RecordResult(account uuid.UUID, won bool, wordsGuessed int, avgWPM float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.RecordGameResult(ctx, account, won, wordsGuessed, avgWPM); err != nil {
		rec.log.WithError(err).WithField("account", account).Warn("recording game result")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}

	src, err := words.Load(
		envOr("WORDS_FILE", "assets/words.txt"),
		envOr("PROMPTS_FILE", "assets/prompts.txt"),
	)
	if err != nil {
		logger.Fatalf("loading word data: %v", err)
	}
	logger.Infof("loaded %d dictionary words", src.WordCount())

	srv := game.NewServer(logger, src)

	if os.Getenv("REDIS_ADDR") != "" {
		pub, err := cache.Connect(context.Background(), logger)
		if err != nil {
			logger.Fatalf("connecting to redis: %v", err)
		}
		defer pub.Close()
		srv.Results = pub
		logger.Info("publishing game results to redis")
	}

	mux := http.NewServeMux()

	mux.Handle("/rooms/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.RoomWSHandler(logger, srv),
	)))

	mux.Handle("/api/info", middleware.LogMiddleware(logger)(handlers.WithCORS(
		handlers.ServerInfoHandler(srv),
	)))
	mux.Handle("/api/room-available/", middleware.LogMiddleware(logger)(handlers.WithCORS(
		handlers.RoomAvailableHandler(srv),
	)))

	// Account endpoints only come up when a database is configured; the
	// game itself never requires an account.
	if os.Getenv("DATABASE_URL") != "" {
		if err := auth.Init(); err != nil {
			logger.Fatalf("initializing auth: %v", err)
		}
		if err := database.Connect(context.Background()); err != nil {
			logger.Fatalf("connecting to database: %v", err)
		}
		defer database.DB.Close()
		srv.Stats = statsRecorder{log: logger}

		mux.Handle("/user/create", middleware.LogMiddleware(logger)(handlers.WithCORS(
			handlers.CreateUserHandler(logger),
		)))
		mux.Handle("/user/login", middleware.LogMiddleware(logger)(handlers.WithCORS(
			handlers.LoginHandler(logger),
		)))
		logger.Info("user account endpoints enabled")
	}

	addr := ":" + envOr("PORT", "8080")
	// No write timeout: the websocket connections under /rooms/ are
	// long-lived.
	server := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", addr)
		errc <- server.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)

	select {
	case err := <-errc:
		logger.Fatalf("server exited: %v", err)
	case sig := <-sigc:
		logger.Infof("shutting down: %v", sig)
		server.Close()
	}
}
