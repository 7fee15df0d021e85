package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordrush/wordrush/internal/protocol"
)

// pick splits the two seats into the turn holder and the other player.
func pick(turn uuid.UUID, a, b *testClient) (current, other *testClient) {
	if a.id == turn {
		return a, b
	}
	return b, a
}

func TestWordBombGuessFlow(t *testing.T) {
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
	current.drain(t)
	other.drain(t)

	assert.ErrorIs(t, s.WordBombGuess(other.sender("room1"), "cat"), ErrOutOfTurn)

	require.NoError(t, s.WordBombInput(other.sender("room1"), "ca"))
	input := lastMsg[protocol.InputUpdate](t, current)
	assert.Equal(t, protocol.InputUpdate{UUID: other.id, Input: "ca"}, input)
	input = lastMsg[protocol.InputUpdate](t, other)
	assert.Equal(t, protocol.InputUpdate{UUID: other.id, Input: "ca"}, input, "typing echoes to the typist too")

	require.NoError(t, s.WordBombGuess(current.sender("room1"), "dog"))
	invalid := lastMsg[protocol.WordBombInvalidGuess](t, other)
	assert.Equal(t, protocol.WordBombPromptNotIn, invalid.Reason)

	require.NoError(t, s.WordBombGuess(current.sender("room1"), "atx"))
	invalid = lastMsg[protocol.WordBombInvalidGuess](t, other)
	assert.Equal(t, protocol.WordBombNotEnglish, invalid.Reason)

	require.NoError(t, s.WordBombGuess(current.sender("room1"), "cat"))
	prompt := lastMsg[protocol.WordBombPrompt](t, other)
	require.NotNil(t, prompt.CorrectGuess)
	assert.Equal(t, "cat", *prompt.CorrectGuess)
	assert.Equal(t, int8(0), prompt.LifeChange)
	assert.Contains(t, []string{"at", "er", "st"}, prompt.Prompt)
	assert.Equal(t, other.id, prompt.Turn)

	room.mu.Lock()
	assert.GreaterOrEqual(t, g.timer.length, minTurnSeconds)
	assert.Equal(t, 0, g.promptUses, "a correct guess deals a fresh prompt")
	g.prompt = "at"
	g.timer.task.Abort()
	room.mu.Unlock()

	require.NoError(t, s.WordBombGuess(other.sender("room1"), "that"))
	prompt = lastMsg[protocol.WordBombPrompt](t, current)
	assert.Equal(t, current.id, prompt.Turn)

	room.mu.Lock()
	g.prompt = "at"
	g.timer.task.Abort()
	room.mu.Unlock()

	// Words are spent for the whole table, not per player.
	require.NoError(t, s.WordBombGuess(current.sender("room1"), "that"))
	invalid = lastMsg[protocol.WordBombInvalidGuess](t, other)
	assert.Equal(t, protocol.WordBombAlreadyUsed, invalid.Reason)

	room.mu.Lock()
	g.timer.task.Abort()
	room.mu.Unlock()
}

func TestWordBombExtraLife(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	bob := join(t, s, "room1", "bob")
	g := startWordBomb(t, s, "room1", alice, bob)

	room := mustRoom(t, s, "room1")
	room.mu.Lock()
	g.prompt = "at"
	p := g.player(g.turn)
	require.NotNil(t, p)
	for i := 0; i < len(extraLifeLetters); i++ {
		p.usedLetters[extraLifeLetters[i]] = struct{}{}
	}
	delete(p.usedLetters, 'c')
	turn := g.turn
	room.mu.Unlock()
	current, other := pick(turn, alice, bob)

	require.NoError(t, s.WordBombGuess(current.sender("room1"), "cat"))
	prompt := lastMsg[protocol.WordBombPrompt](t, other)
	assert.Equal(t, int8(1), prompt.LifeChange)

	room.mu.Lock()
	assert.Equal(t, uint8(startingLives+1), p.lives)
	assert.Empty(t, p.usedLetters, "letter progress resets after the bonus")
	g.timer.task.Abort()
	room.mu.Unlock()
}

func TestWordBombTimeout(t *testing.T) {
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
	current.drain(t)
	other.drain(t)

	s.wordBombTimeout("room1", "at")

	prompt := lastMsg[protocol.WordBombPrompt](t, current)
	assert.Nil(t, prompt.CorrectGuess)
	assert.Equal(t, int8(-1), prompt.LifeChange)
	assert.Equal(t, other.id, prompt.Turn)
	assert.Equal(t, "at", prompt.Prompt, "the prompt survives a single miss")

	room.mu.Lock()
	assert.Equal(t, uint8(startingLives-1), g.player(current.id).lives)
	assert.Contains(t, g.missedPrompts, "at")
	assert.Equal(t, 1, g.promptUses)
	assert.GreaterOrEqual(t, g.timer.length, minTimerSeconds)
	assert.LessOrEqual(t, g.timer.length, maxTimerSeconds)
	g.timer.task.Abort()
	room.mu.Unlock()

	// The second miss rotates it.
	s.wordBombTimeout("room1", "at")
	room.mu.Lock()
	assert.Equal(t, 0, g.promptUses)
	g.timer.task.Abort()
	g.prompt = "er"
	lives := g.player(g.turn).lives
	missed := len(g.missedPrompts)
	room.mu.Unlock()

	// A wakeup armed for a prompt that has moved on does nothing.
	s.wordBombTimeout("room1", "at")
	room.mu.Lock()
	assert.Equal(t, lives, g.player(g.turn).lives)
	assert.Equal(t, missed, len(g.missedPrompts))
	assert.Equal(t, "er", g.prompt)
	room.mu.Unlock()
}

func TestWordBombTimeoutEndsGame(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	bob := join(t, s, "room1", "bob")
	g := startWordBomb(t, s, "room1", alice, bob)

	room := mustRoom(t, s, "room1")
	room.mu.Lock()
	g.prompt = "at"
	g.player(g.turn).lives = 1
	turn := g.turn
	room.mu.Unlock()
	current, other := pick(turn, alice, bob)

	s.wordBombTimeout("room1", "at")

	for _, c := range []*testClient{current, other} {
		ended := lastMsg[protocol.GameEnded](t, c)
		assert.Nil(t, ended.NewRoomOwner)
		sum, ok := ended.Info.(protocol.WordBombSummary)
		require.True(t, ok)
		assert.Equal(t, other.id, sum.Winner)
	}

	room.mu.Lock()
	_, err := room.lobby()
	assert.NoError(t, err, "room returns to lobby")
	for _, c := range room.clients {
		assert.Nil(t, c.rejoinToken, "tokens are cleared at game end")
	}
	room.mu.Unlock()

	require.NoError(t, s.Ready(current.sender("room1")))
}

func TestGameEndDropsRetainedAndElectsOwner(t *testing.T) {
	s := testServer(t)
	alice := join(t, s, "room1", "alice")
	bob := join(t, s, "room1", "bob")
	g := startWordBomb(t, s, "room1", alice, bob)

	// The owner drops mid-game; their seat stays in play.
	require.NoError(t, s.RemoveClient("room1", alice.id, alice.socket))

	room := mustRoom(t, s, "room1")
	room.mu.Lock()
	assert.Len(t, room.clients, 2, "identity retained while the game runs")
	g.prompt = "at"
	g.turn = alice.id
	g.player(alice.id).lives = 1
	room.mu.Unlock()

	s.wordBombTimeout("room1", "at")

	ended := lastMsg[protocol.GameEnded](t, bob)
	require.NotNil(t, ended.NewRoomOwner)
	assert.Equal(t, bob.id, *ended.NewRoomOwner)
	sum, ok := ended.Info.(protocol.WordBombSummary)
	require.True(t, ok)
	assert.Equal(t, bob.id, sum.Winner)

	room.mu.Lock()
	assert.Len(t, room.clients, 1, "retained identities are dropped at game end")
	assert.Equal(t, bob.id, room.owner)
	room.mu.Unlock()
}

func TestWordBombSummaryStats(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	g := &WordBomb{
		startedAt: time.Now().Add(-2 * time.Minute),
		players: []*wordBombPlayer{
			{id: a, usedWords: []usedWord{
				{at: 2 * time.Second, word: "cat"},
				{at: 4 * time.Second, word: "stream"},
			}},
			{id: b, usedWords: []usedWord{
				{at: time.Second, word: "that"},
			}},
			{id: c},
		},
	}

	sum := g.summary(a)
	assert.Equal(t, a, sum.Winner)
	assert.Equal(t, 3, sum.WordsUsed)
	assert.InDelta(t, 2.0, sum.MinsElapsed, 0.1)

	// Fastest ascending by seconds.
	require.Len(t, sum.FastestGuesses, 2)
	assert.Equal(t, protocol.GuessStat{UUID: b, Seconds: 1, Word: "that"}, sum.FastestGuesses[0])
	assert.Equal(t, protocol.GuessStat{UUID: a, Seconds: 2, Word: "cat"}, sum.FastestGuesses[1])

	// Longest descending by length.
	require.Len(t, sum.LongestWords, 2)
	assert.Equal(t, protocol.WordStat{UUID: a, Word: "stream"}, sum.LongestWords[0])
	assert.Equal(t, protocol.WordStat{UUID: b, Word: "that"}, sum.LongestWords[1])

	// WPM: b typed 4 letters in 1s (48 wpm), a averages 18.
	require.Len(t, sum.AvgWPMs, 2)
	assert.Equal(t, b, sum.AvgWPMs[0].UUID)
	assert.InDelta(t, 48.0, sum.AvgWPMs[0].Value, 0.01)
	assert.Equal(t, a, sum.AvgWPMs[1].UUID)
	assert.InDelta(t, 18.0, sum.AvgWPMs[1].Value, 0.01)

	// Average length descending; the wordless player appears nowhere.
	require.Len(t, sum.AvgWordLengths, 2)
	assert.Equal(t, protocol.NumberStat{UUID: a, Value: 4.5}, sum.AvgWordLengths[0])
	assert.Equal(t, protocol.NumberStat{UUID: b, Value: 4}, sum.AvgWordLengths[1])
}

func TestWordBombSummaryInstantGuess(t *testing.T) {
	a := uuid.New()
	g := &WordBomb{
		startedAt: time.Now(),
		players: []*wordBombPlayer{
			{id: a, usedWords: []usedWord{
				{at: 0, word: "mates"},
				{at: 3 * time.Second, word: "cat"},
			}},
		},
	}

	sum := g.summary(a)

	// The instant guess is averaged out of the WPM figure, not zeroed
	// into it: 3 letters in 3s is 12 wpm.
	require.Len(t, sum.AvgWPMs, 1)
	assert.InDelta(t, 12.0, sum.AvgWPMs[0].Value, 0.01)

	// Every other stat still covers both guesses.
	require.Len(t, sum.AvgWordLengths, 1)
	assert.Equal(t, 4.0, sum.AvgWordLengths[0].Value)
	require.Len(t, sum.FastestGuesses, 1)
	assert.Equal(t, "mates", sum.FastestGuesses[0].Word)
	assert.Equal(t, 2, sum.WordsUsed)
}
