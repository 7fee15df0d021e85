package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func roundTripServer(t *testing.T, m ServerMessage) {
	t.Helper()
	data, err := EncodeServerMessage(m)
	require.NoError(t, err)

	var probe map[string]any
	require.NoError(t, json.Unmarshal(data, &probe), "encoded frame must be a JSON object: %s", data)
	require.Contains(t, probe, "type")

	decoded, err := DecodeServerMessage(data)
	require.NoError(t, err, "frame: %s", data)
	assert.Equal(t, m, decoded, "frame: %s", data)
}

func TestServerMessageRoundTrip(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	settings := RoomSettings{Public: true, Game: GameAnagrams, WordBomb: WordBombSettings{MinWPM: 800}}

	messages := []ServerMessage{
		Info{
			UUID: a,
			Room: RoomInfo{
				Owner:    a,
				Settings: settings,
				Clients: []ClientInfo{
					{UUID: a, Username: "alice"},
					{UUID: b, Username: "bob", Disconnected: true},
				},
				State: LobbyState{Ready: []uuid.UUID{a}, StartingCountdown: ptr(uint8(7))},
			},
		},
		Info{
			UUID: b,
			Room: RoomInfo{
				Owner:    b,
				Settings: settings,
				Clients:  []ClientInfo{{UUID: b, Username: "bob"}},
				State: WordBombState{
					Players:     []WordBombPlayerData{{UUID: b, Input: "catac", Lives: 2}},
					Turn:        b,
					Prompt:      "at",
					UsedLetters: []string{"c", "a", "t"},
				},
			},
		},
		ErrorMessage{Content: "server error: out of turn"},
		Pong{Timestamp: 123456789},
		ChatBroadcast{Author: a, Content: "hello"},
		SettingsChanged{RoomSettings: settings},
		ConnectionUpdate{UUID: a, State: Connected{Username: "alice"}},
		ConnectionUpdate{UUID: a, State: Reconnected{Username: "alice"}},
		ConnectionUpdate{UUID: a, State: Disconnected{NewRoomOwner: ptr(b)}},
		ConnectionUpdate{UUID: a, State: Disconnected{}},
		ReadyPlayers{Ready: []uuid.UUID{a, b}, CountdownUpdate: CountdownInProgress{TimeLeft: 10}},
		ReadyPlayers{Ready: []uuid.UUID{a}, CountdownUpdate: CountdownStopped{}},
		ReadyPlayers{Ready: []uuid.UUID{}},
		StartingCountdown{TimeLeft: 9},
		GameStarted{
			RejoinToken: ptr(b),
			Game: AnagramsState{
				Players: []AnagramsPlayerData{{UUID: a, UsedWords: []string{"team"}}},
				Anagram: "maerts",
			},
		},
		GameEnded{
			NewRoomOwner: ptr(a),
			Info: WordBombSummary{
				Winner:         a,
				MinsElapsed:    1.5,
				WordsUsed:      12,
				FastestGuesses: []GuessStat{{UUID: a, Seconds: 0.8, Word: "cat"}},
				LongestWords:   []WordStat{{UUID: a, Word: "alphabet"}},
				AvgWPMs:        []NumberStat{{UUID: a, Value: 42.5}},
				AvgWordLengths: []NumberStat{{UUID: a, Value: 5.25}},
			},
		},
		GameEnded{
			Info: AnagramsSummary{
				OriginalWord: "stream",
				Leaderboard:  []ScoreStat{{UUID: a, Points: 1400}, {UUID: b, Points: 200}},
				UsedWords:    []WordsStat{{UUID: a, Words: []string{"team", "steam"}}},
			},
		},
		InputUpdate{UUID: a, Input: "ca"},
		WordBombInvalidGuess{UUID: a, Reason: WordBombPromptNotIn},
		WordBombInvalidGuess{UUID: a, Reason: WordBombNotEnglish},
		WordBombInvalidGuess{UUID: a, Reason: WordBombAlreadyUsed},
		WordBombPrompt{CorrectGuess: ptr("cat"), LifeChange: 1, Prompt: "er", Turn: b},
		WordBombPrompt{LifeChange: -1, Prompt: "th", Turn: a},
		AnagramsCorrectGuess{UUID: a, Guess: "team"},
		AnagramsInvalidGuess{Reason: AnagramsNotLongEnough},
		AnagramsInvalidGuess{Reason: AnagramsPromptMismatch},
		PracticeSet{Set: []string{"at", "er"}},
		PracticeResult{Correct: true},
	}

	for _, m := range messages {
		roundTripServer(t, m)
	}
}

func TestGuessErrorEncoding(t *testing.T) {
	data, err := json.Marshal(WordBombAlreadyUsed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"AlreadyUsed"}`, string(data))

	data, err = json.Marshal(AnagramsPromptMismatch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PromptMismatch"}`, string(data))
}

func TestEmptyVariantEncoding(t *testing.T) {
	data, err := json.Marshal(CountdownStopped{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Stopped"}`, string(data))
}

func TestDecodeClientMessage(t *testing.T) {
	cases := []struct {
		in   string
		want ClientMessage
	}{
		{`{"type":"Ping","timestamp":42}`, Ping{Timestamp: 42}},
		{`{"type":"Ready"}`, Ready{}},
		{`{"type":"Unready"}`, Unready{}},
		{`{"type":"StartEarly"}`, StartEarly{}},
		{
			`{"type":"RoomSettings","public":true,"game":"Anagrams","word_bomb":{"min_wpm":700}}`,
			SettingsUpdate{RoomSettings{Public: true, Game: GameAnagrams, WordBomb: WordBombSettings{MinWPM: 700}}},
		},
		{`{"type":"ChatMessage","content":"hi"}`, ChatMessage{Content: "hi"}},
		{`{"type":"WordBombInput","input":"ca"}`, WordBombInput{Input: "ca"}},
		{`{"type":"WordBombGuess","word":"cat"}`, WordBombGuess{Word: "cat"}},
		{`{"type":"AnagramsGuess","word":"team"}`, AnagramsGuess{Word: "team"}},
		{`{"type":"PracticeRequest","game":"WordBomb"}`, PracticeRequest{Game: GameWordBomb}},
		{
			`{"type":"PracticeSubmission","game":"WordBomb","prompt":"at","input":"cat"}`,
			PracticeSubmission{Game: GameWordBomb, Prompt: "at", Input: "cat"},
		},
	}

	for _, tc := range cases {
		got, err := DecodeClientMessage([]byte(tc.in))
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestClientMessageEncodeDecode(t *testing.T) {
	messages := []ClientMessage{
		Ping{Timestamp: 7},
		Ready{},
		Unready{},
		StartEarly{},
		SettingsUpdate{DefaultRoomSettings()},
		ChatMessage{Content: "gg"},
		WordBombInput{Input: "str"},
		WordBombGuess{Word: "stream"},
		AnagramsGuess{Word: "rat"},
		PracticeRequest{Game: GameAnagrams},
		PracticeSubmission{Game: GameAnagrams, Prompt: "maerts", Input: "team"},
	}

	for _, m := range messages {
		data, err := EncodeClientMessage(m)
		require.NoError(t, err)
		decoded, err := DecodeClientMessage(data)
		require.NoError(t, err, "frame: %s", data)
		assert.Equal(t, m, decoded)
	}
}

func TestDecodeClientMessageErrors(t *testing.T) {
	for _, in := range []string{
		``,
		`not json`,
		`{}`,
		`{"type":"Nope"}`,
		`{"type":"RoomSettings","game":"Chess"}`,
		`{"type":"PracticeRequest","game":""}`,
	} {
		_, err := DecodeClientMessage([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}
