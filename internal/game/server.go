// Package game holds the room registry and the rules of both games. All
// mutation of a room happens under its lock; deferred work (countdowns,
// turn timers) runs as cancellable tasks that re-validate state on wake.
package game

import (
	"sort"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wordrush/wordrush/internal/protocol"
	"github.com/wordrush/wordrush/internal/ratelimit"
	"github.com/wordrush/wordrush/internal/words"
)

// ResultSink receives finished-game summaries, e.g. for archival. Calls
// are made outside any room lock and may block.
type ResultSink interface {
	PublishResult(room string, game protocol.GameKind, info protocol.PostGameInfo)
}

// StatsSink folds a finished game into a player's persistent account.
// Calls are made outside any room lock and may block.
type StatsSink interface {
	RecordResult(account uuid.UUID, won bool, wordsGuessed int, avgWPM float64)
}

// PlayerResult is one player's outcome of a finished game, fed to the
// stats sink for players that joined with an account.
type PlayerResult struct {
	ID           uuid.UUID
	Won          bool
	WordsGuessed int
	AvgWPM       float64
}

// Server owns every room. The rooms map is guarded by mu; each room then
// has its own lock, and the two are never held together while mutating
// the map.
type Server struct {
	log     *logrus.Logger
	words   *words.Source
	limiter *ratelimit.Keyed

	// Results, when set, is notified after every finished game.
	Results ResultSink
	// Stats, when set, receives per-account outcomes of finished games.
	Stats StatsSink

	mu    sync.RWMutex
	rooms map[string]*Room
}

// SenderInfo identifies the client an inbound message came from.
type SenderInfo struct {
	UUID uuid.UUID
	Room string
}

// ConnectParams are the client-supplied join parameters. Account is the
// persistent account id when the connection carried a valid session.
type ConnectParams struct {
	Username    string
	RejoinToken *uuid.UUID
	Account     *uuid.UUID
}

func NewServer(log *logrus.Logger, src *words.Source) *Server {
	return &Server{
		log:     log,
		words:   src,
		limiter: ratelimit.NewKeyed(messagesPerSecond, messageBurst),
		rooms:   make(map[string]*Room),
	}
}

// getRoom returns the named room without locking it.
func (s *Server) getRoom(name string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// withRoom runs f with the named room locked. A room observed as closed is
// treated as missing: its teardown already ran.
func (s *Server) withRoom(name string, f func(*Room) error) error {
	room, err := s.getRoom(name)
	if err != nil {
		return err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return ErrRoomNotFound
	}
	return f(room)
}

// joinableRoom returns the named room, creating it if needed, locked and
// not closed. The caller must unlock it. The loop covers losing a race
// with a concurrent teardown of the room just fetched.
func (s *Server) joinableRoom(name string) *Room {
	for {
		s.mu.Lock()
		room, ok := s.rooms[name]
		if !ok {
			room = newRoom(name)
			s.rooms[name] = room
		}
		s.mu.Unlock()

		room.mu.Lock()
		if !room.closed {
			return room
		}
		room.mu.Unlock()
	}
}

// deleteRoom drops room from the map unless the name was already reused.
func (s *Server) deleteRoom(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[room.name] == room {
		delete(s.rooms, room.name)
	}
}

// AddClient attaches a connection to the named room, creating the room if
// this is its first join. The outbox channel receives every frame meant
// for this socket. Returns the client's identity.
func (s *Server) AddClient(roomName string, params ConnectParams, socketID uuid.UUID, out chan<- Outbound) (uuid.UUID, error) {
	room := s.joinableRoom(roomName)
	defer room.mu.Unlock()

	// Reconnect path: a valid token reclaims a retained identity.
	if params.RejoinToken != nil {
		for id, c := range room.clients {
			if c.rejoinToken != nil && *c.rejoinToken == *params.RejoinToken {
				if c.Connected() {
					c.closeConn(websocket.StatusPolicyViolation, "connected on another client?")
				}
				c.socket = socketID
				c.out = out
				c.Username = params.Username
				c.account = params.Account
				room.broadcast(protocol.ConnectionUpdate{
					UUID:  id,
					State: protocol.Reconnected{Username: params.Username},
				})
				c.send(protocol.Info{UUID: id, Room: room.roomInfo(id)})
				return id, nil
			}
		}
	}

	if len(room.clients) >= MaxRoomSize {
		return uuid.Nil, ErrRoomFull
	}

	id := uuid.New()
	if len(room.clients) == 0 {
		room.owner = id
	}
	room.clients[id] = &Client{Username: params.Username, socket: socketID, out: out, account: params.Account}
	room.broadcast(protocol.ConnectionUpdate{
		UUID:  id,
		State: protocol.Connected{Username: params.Username},
	})
	room.sendTo(id, protocol.Info{UUID: id, Room: room.roomInfo(id)})

	s.log.WithFields(logrus.Fields{
		"room":     roomName,
		"uuid":     id,
		"username": params.Username,
	}).Info("client joined")
	return id, nil
}

// RemoveClient detaches a connection. socketID must still be the client's
// active socket; a stale value means a reconnect already displaced this
// connection, and removal is a no-op.
func (s *Server) RemoveClient(roomName string, id, socketID uuid.UUID) error {
	room, err := s.getRoom(roomName)
	if err != nil {
		return err
	}
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return ErrRoomNotFound
	}

	client, ok := room.clients[id]
	if !ok {
		room.mu.Unlock()
		return ErrClientNotFound
	}
	if client.socket != socketID {
		room.mu.Unlock()
		return ErrSocketMismatch
	}
	client.socket = uuid.Nil
	client.out = nil

	if room.connectedCount() == 0 {
		room.abortTasks()
		room.closed = true
		for cid := range room.clients {
			s.limiter.Forget(cid)
		}
		room.mu.Unlock()
		s.deleteRoom(room)
		s.log.WithField("room", roomName).Info("room closed")
		return nil
	}

	if lobby, err := room.lobby(); err == nil {
		// No game to rejoin: drop the identity entirely.
		delete(room.clients, id)
		s.limiter.Forget(id)
		if _, wasReady := lobby.ready[id]; wasReady {
			delete(lobby.ready, id)
			update := s.checkCountdown(room, lobby)
			room.broadcast(protocol.ReadyPlayers{Ready: lobby.readyList(), CountdownUpdate: update})
		}
		newOwner := room.electOwner()
		room.broadcast(protocol.ConnectionUpdate{
			UUID:  id,
			State: protocol.Disconnected{NewRoomOwner: newOwner},
		})
	} else {
		// Mid-game the identity is retained for reconnection.
		room.broadcast(protocol.ConnectionUpdate{
			UUID:  id,
			State: protocol.Disconnected{},
		})
	}
	room.mu.Unlock()
	return nil
}

// ServerInfo is the public overview served at the info endpoint.
type ServerInfo struct {
	ClientsConnected int          `json:"clients_connected"`
	PublicRooms      []PublicRoom `json:"public_rooms"`
}

// PublicRoom summarizes one joinable public room.
type PublicRoom struct {
	Name    string            `json:"name"`
	Players []string          `json:"players"`
	Game    protocol.GameKind `json:"game"`
}

// Info reports the connected-client count and every public room.
func (s *Server) Info() ServerInfo {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	info := ServerInfo{PublicRooms: []PublicRoom{}}
	for _, room := range rooms {
		room.mu.Lock()
		if room.closed {
			room.mu.Unlock()
			continue
		}
		info.ClientsConnected += room.connectedCount()
		if room.settings.Public {
			players := make([]string, 0, len(room.clients))
			for _, c := range room.clients {
				players = append(players, c.Username)
			}
			sort.Strings(players)
			info.PublicRooms = append(info.PublicRooms, PublicRoom{
				Name:    room.name,
				Players: players,
				Game:    room.settings.Game,
			})
		}
		room.mu.Unlock()
	}
	sort.Slice(info.PublicRooms, func(i, j int) bool {
		return info.PublicRooms[i].Name < info.PublicRooms[j].Name
	})
	return info
}

// RoomAvailable reports whether a join for name could succeed right now.
func (s *Server) RoomAvailable(name string) bool {
	room, err := s.getRoom(name)
	if err != nil {
		return true
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.closed || len(room.clients) < MaxRoomSize
}
