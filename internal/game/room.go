package game

import (
	"sort"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wordrush/wordrush/internal/protocol"
)

// MaxRoomSize caps a room's client registry, connected or retained.
const MaxRoomSize = 8

const (
	maxUsernameLen = 12
	maxRoomNameLen = 6
)

// Outbound is one frame queued toward a client's connection: either an
// encoded message or a directive to close the socket.
type Outbound struct {
	Data  []byte
	Close *CloseDirective
}

// CloseDirective tells the connection's writer to send a close frame and
// tear the socket down.
type CloseDirective struct {
	Code   websocket.StatusCode
	Reason string
}

// Client is one identity inside a room. The socket token identifies the
// connection currently attached to it; it is uuid.Nil while the client is
// disconnected but retained mid-game.
type Client struct {
	Username string

	socket      uuid.UUID
	out         chan<- Outbound
	rejoinToken *uuid.UUID
	account     *uuid.UUID
}

// Connected reports whether a socket is currently attached.
func (c *Client) Connected() bool {
	return c.socket != uuid.Nil
}

// push queues a frame without ever blocking. A slow client loses frames
// rather than stalling the room.
func (c *Client) push(f Outbound) {
	if !c.Connected() {
		return
	}
	select {
	case c.out <- f:
	default:
		logrus.WithField("username", c.Username).Warn("outbox full, dropping frame")
	}
}

func (c *Client) send(msg protocol.ServerMessage) {
	data, err := protocol.EncodeServerMessage(msg)
	if err != nil {
		logrus.WithError(err).Warnf("encoding %T", msg)
		return
	}
	c.push(Outbound{Data: data})
}

func (c *Client) closeConn(code websocket.StatusCode, reason string) {
	c.push(Outbound{Close: &CloseDirective{Code: code, Reason: reason}})
}

// Room is a single game room. All fields past mu are guarded by it.
type Room struct {
	name string

	mu       sync.Mutex
	closed   bool
	owner    uuid.UUID
	settings protocol.RoomSettings
	clients  map[uuid.UUID]*Client
	state    roomState
}

// roomState is the room's phase: *Lobby, *WordBomb or *Anagrams.
type roomState interface {
	stateInfo(viewer uuid.UUID) protocol.RoomState
}

func newRoom(name string) *Room {
	return &Room{
		name:     name,
		settings: protocol.DefaultRoomSettings(),
		clients:  make(map[uuid.UUID]*Client),
		state:    newLobby(),
	}
}

func (r *Room) lobby() (*Lobby, error) {
	st, ok := r.state.(*Lobby)
	if !ok {
		return nil, ErrNotInLobby
	}
	return st, nil
}

func (r *Room) wordBomb() (*WordBomb, error) {
	st, ok := r.state.(*WordBomb)
	if !ok {
		return nil, ErrNotInWordBomb
	}
	return st, nil
}

func (r *Room) anagrams() (*Anagrams, error) {
	st, ok := r.state.(*Anagrams)
	if !ok {
		return nil, ErrNotInAnagrams
	}
	return st, nil
}

func (r *Room) connectedCount() int {
	n := 0
	for _, c := range r.clients {
		if c.Connected() {
			n++
		}
	}
	return n
}

// broadcast encodes msg once and queues it to every connected client,
// the originator of the update included.
func (r *Room) broadcast(msg protocol.ServerMessage) {
	data, err := protocol.EncodeServerMessage(msg)
	if err != nil {
		logrus.WithError(err).Warnf("encoding %T", msg)
		return
	}
	for _, c := range r.clients {
		c.push(Outbound{Data: data})
	}
}

func (r *Room) sendTo(id uuid.UUID, msg protocol.ServerMessage) {
	if c, ok := r.clients[id]; ok {
		c.send(msg)
	}
}

// abortTasks cancels whatever deferred work the current state scheduled.
func (r *Room) abortTasks() {
	switch st := r.state.(type) {
	case *Lobby:
		if st.countdown != nil {
			st.countdown.task.Abort()
		}
	case *WordBomb:
		st.timer.task.Abort()
	case *Anagrams:
		st.task.Abort()
	}
}

// electOwner picks a new owner if the current one is gone. Returns the new
// owner's id, or nil when the ownership did not change.
func (r *Room) electOwner() *uuid.UUID {
	if _, ok := r.clients[r.owner]; ok {
		return nil
	}
	for id := range r.clients {
		r.owner = id
		return &id
	}
	return nil
}

// roomInfo snapshots the room for the client identified by viewer.
func (r *Room) roomInfo(viewer uuid.UUID) protocol.RoomInfo {
	clients := make([]protocol.ClientInfo, 0, len(r.clients))
	for id, c := range r.clients {
		clients = append(clients, protocol.ClientInfo{
			UUID:         id,
			Username:     c.Username,
			Disconnected: !c.Connected(),
		})
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].UUID.String() < clients[j].UUID.String()
	})

	return protocol.RoomInfo{
		Owner:    r.owner,
		Settings: r.settings,
		Clients:  clients,
		State:    r.state.stateInfo(viewer),
	}
}

// ValidateUsername enforces the connect-time username rule: 1 to 12 ASCII
// alphanumerics.
func ValidateUsername(name string) bool {
	return validToken(name, maxUsernameLen)
}

// ValidateRoomName enforces the room naming rule: 1 to 6 ASCII
// alphanumerics.
func ValidateRoomName(name string) bool {
	return validToken(name, maxRoomNameLen)
}

func validToken(s string, max int) bool {
	if len(s) == 0 || len(s) > max {
		return false
	}
	for _, c := range []byte(s) {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
