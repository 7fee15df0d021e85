package game

import (
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/wordrush/wordrush/internal/protocol"
	"github.com/wordrush/wordrush/internal/words"
)

func testWords(t *testing.T) *words.Source {
	t.Helper()
	prompts, err := words.ParsePrompts(strings.NewReader("500:at,er\n1200:st\n"))
	require.NoError(t, err)

	src, err := words.New([]string{
		"am", "cat", "east", "eat", "later", "master", "mate", "mates",
		"rat", "seat", "steam", "stream", "team", "that", "water",
	}, prompts)
	require.NoError(t, err)
	return src
}

func testServer(t *testing.T) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(log, testWords(t))
}

type testClient struct {
	id     uuid.UUID
	socket uuid.UUID
	out    chan Outbound
}

func (c *testClient) sender(room string) SenderInfo {
	return SenderInfo{UUID: c.id, Room: room}
}

func join(t *testing.T, s *Server, room, username string) *testClient {
	t.Helper()
	c := &testClient{socket: uuid.New(), out: make(chan Outbound, 64)}
	id, err := s.AddClient(room, ConnectParams{Username: username}, c.socket, c.out)
	require.NoError(t, err)
	c.id = id
	return c
}

// drain decodes every queued data frame, dropping close directives.
func (c *testClient) drain(t *testing.T) []protocol.ServerMessage {
	t.Helper()
	var msgs []protocol.ServerMessage
	for {
		select {
		case f := <-c.out:
			if f.Close != nil {
				continue
			}
			m, err := protocol.DecodeServerMessage(f.Data)
			require.NoError(t, err, "frame: %s", f.Data)
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

// closeFrames drains the outbox keeping only close directives.
func (c *testClient) closeFrames(t *testing.T) []CloseDirective {
	t.Helper()
	var frames []CloseDirective
	for {
		select {
		case f := <-c.out:
			if f.Close != nil {
				frames = append(frames, *f.Close)
			}
		default:
			return frames
		}
	}
}

// lastMsg returns the last queued message of type T, failing if absent.
func lastMsg[T protocol.ServerMessage](t *testing.T, c *testClient) T {
	t.Helper()
	msg, ok := findMsg[T](t, c)
	require.True(t, ok, "no %T in outbox", *new(T))
	return msg
}

func findMsg[T protocol.ServerMessage](t *testing.T, c *testClient) (T, bool) {
	t.Helper()
	var found T
	ok := false
	for _, m := range c.drain(t) {
		if v, isT := m.(T); isT {
			found = v
			ok = true
		}
	}
	return found, ok
}

// mustRoom fetches a live room for white-box inspection.
func mustRoom(t *testing.T, s *Server, name string) *Room {
	t.Helper()
	room, err := s.getRoom(name)
	require.NoError(t, err)
	return room
}

// startWordBomb readies both clients and starts via the owner, returning
// the game state with its fuse task already aborted so the background
// timer cannot interfere with the test.
func startWordBomb(t *testing.T, s *Server, room string, owner *testClient, others ...*testClient) *WordBomb {
	t.Helper()
	require.NoError(t, s.Ready(owner.sender(room)))
	for _, c := range others {
		require.NoError(t, s.Ready(c.sender(room)))
	}
	require.NoError(t, s.StartEarly(owner.sender(room)))

	r := mustRoom(t, s, room)
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.wordBomb()
	require.NoError(t, err)
	g.timer.task.Abort()
	return g
}
