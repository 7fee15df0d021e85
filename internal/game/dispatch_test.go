package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordrush/wordrush/internal/protocol"
)

func TestDispatchPing(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	alice.drain(t)

	s.HandleMessage(alice.sender("room1"), protocol.Ping{Timestamp: 42})
	pong := lastMsg[protocol.Pong](t, alice)
	assert.Equal(t, uint64(42), pong.Timestamp)
}

func TestDispatchRateLimit(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	alice.drain(t)

	for i := 0; i < messageBurst; i++ {
		s.HandleMessage(alice.sender("room1"), protocol.Ping{Timestamp: uint64(i)})
	}
	msgs := alice.drain(t)
	pongs := 0
	for _, m := range msgs {
		if _, ok := m.(protocol.Pong); ok {
			pongs++
		}
	}
	assert.Equal(t, messageBurst, pongs, "the whole burst goes through")

	s.HandleMessage(alice.sender("room1"), protocol.Ping{Timestamp: 99})
	errMsg := lastMsg[protocol.ErrorMessage](t, alice)
	assert.Equal(t, "server error: rate limited", errMsg.Content)
}

func TestDispatchSizeLimits(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	bob := join(t, s, "room1", "bob")
	startWordBomb(t, s, "room1", alice, bob)

	cases := []struct {
		name string
		msg  protocol.ClientMessage
		want string
	}{
		{"chat", protocol.ChatMessage{Content: strings.Repeat("a", maxChatBytes+1)}, "chat message too long"},
		{"input", protocol.WordBombInput{Input: strings.Repeat("a", maxInputBytes+1)}, "input too long"},
		{"guess", protocol.WordBombGuess{Word: strings.Repeat("a", maxGuessBytes+1)}, "guess too long"},
		{"anagram", protocol.AnagramsGuess{Word: "abcdefg"}, "guess too long"},
	}
	for _, tc := range cases {
		alice.drain(t)
		s.HandleMessage(alice.sender("room1"), tc.msg)
		errMsg := lastMsg[protocol.ErrorMessage](t, alice)
		assert.Equal(t, "server error: "+tc.want, errMsg.Content, tc.name)
	}

	// At the limit everything is accepted.
	alice.drain(t)
	bob.drain(t)
	s.HandleMessage(alice.sender("room1"), protocol.ChatMessage{Content: strings.Repeat("a", maxChatBytes)})
	_, got := findMsg[protocol.ChatBroadcast](t, bob)
	assert.True(t, got)
}

func TestDispatchNormalizesGuesses(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	bob := join(t, s, "room1", "bob")
	g := startWordBomb(t, s, "room1", alice, bob)

	room := mustRoom(t, s, "room1")
	room.mu.Lock()
	g.prompt = "at"
	turn := g.turn
	room.mu.Unlock()
	current, other := pick(turn, alice, bob)
	other.drain(t)

	s.HandleMessage(current.sender("room1"), protocol.WordBombGuess{Word: " C-a T!"})
	prompt := lastMsg[protocol.WordBombPrompt](t, other)
	require.NotNil(t, prompt.CorrectGuess)
	assert.Equal(t, "cat", *prompt.CorrectGuess)

	room.mu.Lock()
	g.timer.task.Abort()
	room.mu.Unlock()
}

func TestDispatchUnknownRoom(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	alice.drain(t)

	// Errors for a vanished room have nowhere to go; this must not panic.
	s.HandleMessage(SenderInfo{UUID: alice.id, Room: "ghost"}, protocol.Ready{})
	assert.Empty(t, alice.drain(t))
}

func TestDispatchGameplayErrorsReachSenderOnly(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	bob := join(t, s, "room1", "bob")
	g := startWordBomb(t, s, "room1", alice, bob)

	room := mustRoom(t, s, "room1")
	room.mu.Lock()
	turn := g.turn
	room.mu.Unlock()
	current, other := pick(turn, alice, bob)
	current.drain(t)
	other.drain(t)

	s.HandleMessage(other.sender("room1"), protocol.WordBombGuess{Word: "cat"})
	errMsg := lastMsg[protocol.ErrorMessage](t, other)
	assert.Equal(t, "server error: played out of turn", errMsg.Content)
	assert.Empty(t, current.drain(t))
}

func TestNormalizeWord(t *testing.T) {
	assert.Equal(t, "cat", normalizeWord("CAT"))
	assert.Equal(t, "cat", normalizeWord(" c-a t!"))
	assert.Equal(t, "", normalizeWord("123 !?"))
	assert.Equal(t, "caf", normalizeWord("café"), "non-ASCII letters are dropped")
}
