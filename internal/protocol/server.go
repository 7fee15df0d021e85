package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ServerMessage is the union of messages the server may emit.
type ServerMessage interface {
	json.Marshaler
	isServerMessage()
}

// EncodeServerMessage serializes one outbound frame.
func EncodeServerMessage(m ServerMessage) ([]byte, error) {
	return m.MarshalJSON()
}

// --- room state union ---

// RoomState is the state portion of a room snapshot: Lobby, WordBomb or
// Anagrams.
type RoomState interface {
	json.Marshaler
	isRoomState()
}

// LobbyState is the lobby snapshot.
type LobbyState struct {
	Ready             []uuid.UUID `json:"ready"`
	StartingCountdown *uint8      `json:"starting_countdown,omitempty"`
}

// WordBombState is the Word Bomb snapshot. UsedLetters is present only in
// snapshots tailored to a participating player.
type WordBombState struct {
	Players     []WordBombPlayerData `json:"players"`
	Turn        uuid.UUID            `json:"turn"`
	Prompt      string               `json:"prompt"`
	UsedLetters []string             `json:"used_letters,omitempty"`
}

// AnagramsState is the Anagrams snapshot.
type AnagramsState struct {
	Players []AnagramsPlayerData `json:"players"`
	Anagram string               `json:"anagram"`
}

func (LobbyState) isRoomState()    {}
func (WordBombState) isRoomState() {}
func (AnagramsState) isRoomState() {}

func (s LobbyState) MarshalJSON() ([]byte, error) {
	type alias LobbyState
	return encodeTagged("Lobby", alias(s))
}

func (s WordBombState) MarshalJSON() ([]byte, error) {
	type alias WordBombState
	return encodeTagged("WordBomb", alias(s))
}

func (s AnagramsState) MarshalJSON() ([]byte, error) {
	type alias AnagramsState
	return encodeTagged("Anagrams", alias(s))
}

func decodeRoomState(data []byte) (RoomState, error) {
	tag, err := peekTag(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "Lobby":
		var s struct {
			LobbyState
			Type string `json:"type"`
		}
		return s.LobbyState, json.Unmarshal(data, &s)
	case "WordBomb":
		var s struct {
			WordBombState
			Type string `json:"type"`
		}
		return s.WordBombState, json.Unmarshal(data, &s)
	case "Anagrams":
		var s struct {
			AnagramsState
			Type string `json:"type"`
		}
		return s.AnagramsState, json.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("unknown room state %q", tag)
	}
}

// --- connection update union ---

// ConnectionState describes what happened to a client's connection.
type ConnectionState interface {
	json.Marshaler
	isConnectionState()
}

// Connected reports a brand new client.
type Connected struct {
	Username string `json:"username"`
}

// Reconnected reports a retained client resuming on a fresh socket.
type Reconnected struct {
	Username string `json:"username"`
}

// Disconnected reports a client losing its socket. NewRoomOwner is set when
// the departure forced an owner election.
type Disconnected struct {
	NewRoomOwner *uuid.UUID `json:"new_room_owner"`
}

func (Connected) isConnectionState()    {}
func (Reconnected) isConnectionState()  {}
func (Disconnected) isConnectionState() {}

func (s Connected) MarshalJSON() ([]byte, error) {
	type alias Connected
	return encodeTagged("Connected", alias(s))
}

func (s Reconnected) MarshalJSON() ([]byte, error) {
	type alias Reconnected
	return encodeTagged("Reconnected", alias(s))
}

func (s Disconnected) MarshalJSON() ([]byte, error) {
	type alias Disconnected
	return encodeTagged("Disconnected", alias(s))
}

func decodeConnectionState(data []byte) (ConnectionState, error) {
	tag, err := peekTag(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "Connected":
		var s struct {
			Connected
			Type string `json:"type"`
		}
		return s.Connected, json.Unmarshal(data, &s)
	case "Reconnected":
		var s struct {
			Reconnected
			Type string `json:"type"`
		}
		return s.Reconnected, json.Unmarshal(data, &s)
	case "Disconnected":
		var s struct {
			Disconnected
			Type string `json:"type"`
		}
		return s.Disconnected, json.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("unknown connection state %q", tag)
	}
}

// --- countdown update union ---

// CountdownUpdate accompanies ReadyPlayers when the ready-set change
// started or stopped the countdown.
type CountdownUpdate interface {
	json.Marshaler
	isCountdownUpdate()
}

// CountdownInProgress reports a countdown starting.
type CountdownInProgress struct {
	TimeLeft uint8 `json:"time_left"`
}

// CountdownStopped reports the countdown being cancelled.
type CountdownStopped struct{}

func (CountdownInProgress) isCountdownUpdate() {}
func (CountdownStopped) isCountdownUpdate()    {}

func (s CountdownInProgress) MarshalJSON() ([]byte, error) {
	type alias CountdownInProgress
	return encodeTagged("InProgress", alias(s))
}

func (s CountdownStopped) MarshalJSON() ([]byte, error) {
	type alias CountdownStopped
	return encodeTagged("Stopped", alias(s))
}

func decodeCountdownUpdate(data []byte) (CountdownUpdate, error) {
	tag, err := peekTag(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "InProgress":
		var s struct {
			CountdownInProgress
			Type string `json:"type"`
		}
		return s.CountdownInProgress, json.Unmarshal(data, &s)
	case "Stopped":
		return CountdownStopped{}, nil
	default:
		return nil, fmt.Errorf("unknown countdown update %q", tag)
	}
}

// --- post-game info union ---

// PostGameInfo is the per-game summary carried by GameEnded.
type PostGameInfo interface {
	json.Marshaler
	isPostGameInfo()
}

// WordBombSummary is the Word Bomb post-game display data. The stat lists
// are pre-sorted by the server.
type WordBombSummary struct {
	Winner         uuid.UUID    `json:"winner"`
	MinsElapsed    float64      `json:"mins_elapsed"`
	WordsUsed      int          `json:"words_used"`
	FastestGuesses []GuessStat  `json:"fastest_guesses"`
	LongestWords   []WordStat   `json:"longest_words"`
	AvgWPMs        []NumberStat `json:"avg_wpms"`
	AvgWordLengths []NumberStat `json:"avg_word_lengths"`
}

// AnagramsSummary is the Anagrams post-game display data.
type AnagramsSummary struct {
	OriginalWord string      `json:"original_word"`
	Leaderboard  []ScoreStat `json:"leaderboard"`
	UsedWords    []WordsStat `json:"used_words"`
}

func (WordBombSummary) isPostGameInfo() {}
func (AnagramsSummary) isPostGameInfo() {}

func (s WordBombSummary) MarshalJSON() ([]byte, error) {
	type alias WordBombSummary
	return encodeTagged("WordBomb", alias(s))
}

func (s AnagramsSummary) MarshalJSON() ([]byte, error) {
	type alias AnagramsSummary
	return encodeTagged("Anagrams", alias(s))
}

func decodePostGameInfo(data []byte) (PostGameInfo, error) {
	tag, err := peekTag(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "WordBomb":
		var s struct {
			WordBombSummary
			Type string `json:"type"`
		}
		return s.WordBombSummary, json.Unmarshal(data, &s)
	case "Anagrams":
		var s struct {
			AnagramsSummary
			Type string `json:"type"`
		}
		return s.AnagramsSummary, json.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("unknown post game info %q", tag)
	}
}

// --- guess error enums ---

// WordBombGuessError explains a rejected Word Bomb guess.
type WordBombGuessError string

const (
	WordBombPromptNotIn WordBombGuessError = "PromptNotIn"
	WordBombNotEnglish  WordBombGuessError = "NotEnglish"
	WordBombAlreadyUsed WordBombGuessError = "AlreadyUsed"
)

func (e WordBombGuessError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{string(e)})
}

func (e *WordBombGuessError) UnmarshalJSON(data []byte) error {
	tag, err := peekTag(data)
	if err != nil {
		return err
	}
	switch v := WordBombGuessError(tag); v {
	case WordBombPromptNotIn, WordBombNotEnglish, WordBombAlreadyUsed:
		*e = v
		return nil
	default:
		return fmt.Errorf("unknown word bomb guess error %q", tag)
	}
}

// AnagramsGuessError explains a rejected Anagrams guess.
type AnagramsGuessError string

const (
	AnagramsNotLongEnough  AnagramsGuessError = "NotLongEnough"
	AnagramsPromptMismatch AnagramsGuessError = "PromptMismatch"
	AnagramsNotEnglish     AnagramsGuessError = "NotEnglish"
	AnagramsAlreadyUsed    AnagramsGuessError = "AlreadyUsed"
)

func (e AnagramsGuessError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{string(e)})
}

func (e *AnagramsGuessError) UnmarshalJSON(data []byte) error {
	tag, err := peekTag(data)
	if err != nil {
		return err
	}
	switch v := AnagramsGuessError(tag); v {
	case AnagramsNotLongEnough, AnagramsPromptMismatch, AnagramsNotEnglish, AnagramsAlreadyUsed:
		*e = v
		return nil
	default:
		return fmt.Errorf("unknown anagrams guess error %q", tag)
	}
}

// --- server messages ---

// Info is the full room snapshot sent to a freshly attached socket.
type Info struct {
	UUID uuid.UUID `json:"uuid"`
	Room RoomInfo  `json:"room"`
}

// ErrorMessage reports a failed operation back to its sender.
// Wire tag: "Error".
type ErrorMessage struct {
	Content string `json:"content"`
}

// Pong echoes a Ping's timestamp.
type Pong struct {
	Timestamp uint64 `json:"timestamp"`
}

// ChatBroadcast relays a chat line. Wire tag: "ChatMessage".
type ChatBroadcast struct {
	Author  uuid.UUID `json:"author"`
	Content string    `json:"content"`
}

// SettingsChanged relays updated room settings. Wire tag: "RoomSettings".
type SettingsChanged struct {
	RoomSettings
}

// ConnectionUpdate reports a client connecting, reconnecting or dropping.
type ConnectionUpdate struct {
	UUID  uuid.UUID       `json:"uuid"`
	State ConnectionState `json:"state"`
}

// ReadyPlayers is the authoritative ready-set after any change, plus the
// countdown transition it caused, if any.
type ReadyPlayers struct {
	Ready           []uuid.UUID     `json:"ready"`
	CountdownUpdate CountdownUpdate `json:"countdown_update,omitempty"`
}

// StartingCountdown is the once-per-second countdown tick.
type StartingCountdown struct {
	TimeLeft uint8 `json:"time_left"`
}

// GameStarted is sent to each connected client at game start; RejoinToken
// is present only for participating players.
type GameStarted struct {
	RejoinToken *uuid.UUID `json:"rejoin_token,omitempty"`
	Game        RoomState  `json:"game"`
}

// GameEnded carries the post-game summary and the room's next owner when
// an election happened during the game.
type GameEnded struct {
	NewRoomOwner *uuid.UUID   `json:"new_room_owner,omitempty"`
	Info         PostGameInfo `json:"info"`
}

// InputUpdate relays a player's live typing preview.
// Wire tag: "WordBombInput".
type InputUpdate struct {
	UUID  uuid.UUID `json:"uuid"`
	Input string    `json:"input"`
}

// WordBombInvalidGuess reports a rejected guess to the whole room.
type WordBombInvalidGuess struct {
	UUID   uuid.UUID          `json:"uuid"`
	Reason WordBombGuessError `json:"reason"`
}

// WordBombPrompt announces the next prompt and turn, either after a correct
// guess (CorrectGuess set, LifeChange >= 0) or a timeout (CorrectGuess nil,
// LifeChange -1).
type WordBombPrompt struct {
	CorrectGuess *string   `json:"correct_guess,omitempty"`
	LifeChange   int8      `json:"life_change"`
	Prompt       string    `json:"prompt"`
	Turn         uuid.UUID `json:"turn"`
}

// AnagramsCorrectGuess announces a scored word.
type AnagramsCorrectGuess struct {
	UUID  uuid.UUID `json:"uuid"`
	Guess string    `json:"guess"`
}

// AnagramsInvalidGuess reports a rejected guess to its sender.
type AnagramsInvalidGuess struct {
	Reason AnagramsGuessError `json:"reason"`
}

// PracticeSet is a batch of practice prompts or anagrams.
type PracticeSet struct {
	Set []string `json:"set"`
}

// PracticeResult grades a single practice submission.
type PracticeResult struct {
	Correct bool `json:"correct"`
}

func (Info) isServerMessage()                 {}
func (ErrorMessage) isServerMessage()         {}
func (Pong) isServerMessage()                 {}
func (ChatBroadcast) isServerMessage()        {}
func (SettingsChanged) isServerMessage()      {}
func (ConnectionUpdate) isServerMessage()     {}
func (ReadyPlayers) isServerMessage()         {}
func (StartingCountdown) isServerMessage()    {}
func (GameStarted) isServerMessage()          {}
func (GameEnded) isServerMessage()            {}
func (InputUpdate) isServerMessage()          {}
func (WordBombInvalidGuess) isServerMessage() {}
func (WordBombPrompt) isServerMessage()       {}
func (AnagramsCorrectGuess) isServerMessage() {}
func (AnagramsInvalidGuess) isServerMessage() {}
func (PracticeSet) isServerMessage()          {}
func (PracticeResult) isServerMessage()       {}

func (m Info) MarshalJSON() ([]byte, error) {
	type alias Info
	return encodeTagged("Info", alias(m))
}

func (m ErrorMessage) MarshalJSON() ([]byte, error) {
	type alias ErrorMessage
	return encodeTagged("Error", alias(m))
}

func (m Pong) MarshalJSON() ([]byte, error) {
	type alias Pong
	return encodeTagged("Pong", alias(m))
}

func (m ChatBroadcast) MarshalJSON() ([]byte, error) {
	type alias ChatBroadcast
	return encodeTagged("ChatMessage", alias(m))
}

func (m SettingsChanged) MarshalJSON() ([]byte, error) {
	return encodeTagged("RoomSettings", m.RoomSettings)
}

func (m ConnectionUpdate) MarshalJSON() ([]byte, error) {
	type alias ConnectionUpdate
	return encodeTagged("ConnectionUpdate", alias(m))
}

func (m ReadyPlayers) MarshalJSON() ([]byte, error) {
	type alias ReadyPlayers
	return encodeTagged("ReadyPlayers", alias(m))
}

func (m StartingCountdown) MarshalJSON() ([]byte, error) {
	type alias StartingCountdown
	return encodeTagged("StartingCountdown", alias(m))
}

func (m GameStarted) MarshalJSON() ([]byte, error) {
	type alias GameStarted
	return encodeTagged("GameStarted", alias(m))
}

func (m GameEnded) MarshalJSON() ([]byte, error) {
	type alias GameEnded
	return encodeTagged("GameEnded", alias(m))
}

func (m InputUpdate) MarshalJSON() ([]byte, error) {
	type alias InputUpdate
	return encodeTagged("WordBombInput", alias(m))
}

func (m WordBombInvalidGuess) MarshalJSON() ([]byte, error) {
	type alias WordBombInvalidGuess
	return encodeTagged("WordBombInvalidGuess", alias(m))
}

func (m WordBombPrompt) MarshalJSON() ([]byte, error) {
	type alias WordBombPrompt
	return encodeTagged("WordBombPrompt", alias(m))
}

func (m AnagramsCorrectGuess) MarshalJSON() ([]byte, error) {
	type alias AnagramsCorrectGuess
	return encodeTagged("AnagramsCorrectGuess", alias(m))
}

func (m AnagramsInvalidGuess) MarshalJSON() ([]byte, error) {
	type alias AnagramsInvalidGuess
	return encodeTagged("AnagramsInvalidGuess", alias(m))
}

func (m PracticeSet) MarshalJSON() ([]byte, error) {
	type alias PracticeSet
	return encodeTagged("PracticeSet", alias(m))
}

func (m PracticeResult) MarshalJSON() ([]byte, error) {
	type alias PracticeResult
	return encodeTagged("PracticeResult", alias(m))
}

// UnmarshalJSON resolves the nested ConnectionState union.
func (m *ConnectionUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		UUID  uuid.UUID       `json:"uuid"`
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	state, err := decodeConnectionState(raw.State)
	if err != nil {
		return err
	}
	*m = ConnectionUpdate{UUID: raw.UUID, State: state}
	return nil
}

// UnmarshalJSON resolves the optional CountdownUpdate union.
func (m *ReadyPlayers) UnmarshalJSON(data []byte) error {
	var raw struct {
		Ready           []uuid.UUID     `json:"ready"`
		CountdownUpdate json.RawMessage `json:"countdown_update"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ReadyPlayers{Ready: raw.Ready}
	if len(raw.CountdownUpdate) > 0 && string(raw.CountdownUpdate) != "null" {
		update, err := decodeCountdownUpdate(raw.CountdownUpdate)
		if err != nil {
			return err
		}
		m.CountdownUpdate = update
	}
	return nil
}

// UnmarshalJSON resolves the nested RoomState union.
func (m *GameStarted) UnmarshalJSON(data []byte) error {
	var raw struct {
		RejoinToken *uuid.UUID      `json:"rejoin_token"`
		Game        json.RawMessage `json:"game"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	game, err := decodeRoomState(raw.Game)
	if err != nil {
		return err
	}
	*m = GameStarted{RejoinToken: raw.RejoinToken, Game: game}
	return nil
}

// UnmarshalJSON resolves the nested PostGameInfo union.
func (m *GameEnded) UnmarshalJSON(data []byte) error {
	var raw struct {
		NewRoomOwner *uuid.UUID      `json:"new_room_owner"`
		Info         json.RawMessage `json:"info"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	info, err := decodePostGameInfo(raw.Info)
	if err != nil {
		return err
	}
	*m = GameEnded{NewRoomOwner: raw.NewRoomOwner, Info: info}
	return nil
}

// DecodeServerMessage parses one outbound frame. Clients of this package's
// tests and tooling use it; the server itself only encodes.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	tag, err := peekTag(data)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Info":
		var m Info
		return m, json.Unmarshal(data, &m)
	case "Error":
		var m ErrorMessage
		return m, json.Unmarshal(data, &m)
	case "Pong":
		var m Pong
		return m, json.Unmarshal(data, &m)
	case "ChatMessage":
		var m ChatBroadcast
		return m, json.Unmarshal(data, &m)
	case "RoomSettings":
		var m SettingsChanged
		return m, json.Unmarshal(data, &m.RoomSettings)
	case "ConnectionUpdate":
		var m ConnectionUpdate
		return m, json.Unmarshal(data, &m)
	case "ReadyPlayers":
		var m ReadyPlayers
		return m, json.Unmarshal(data, &m)
	case "StartingCountdown":
		var m StartingCountdown
		return m, json.Unmarshal(data, &m)
	case "GameStarted":
		var m GameStarted
		return m, json.Unmarshal(data, &m)
	case "GameEnded":
		var m GameEnded
		return m, json.Unmarshal(data, &m)
	case "WordBombInput":
		var m InputUpdate
		return m, json.Unmarshal(data, &m)
	case "WordBombInvalidGuess":
		var m WordBombInvalidGuess
		return m, json.Unmarshal(data, &m)
	case "WordBombPrompt":
		var m WordBombPrompt
		return m, json.Unmarshal(data, &m)
	case "AnagramsCorrectGuess":
		var m AnagramsCorrectGuess
		return m, json.Unmarshal(data, &m)
	case "AnagramsInvalidGuess":
		var m AnagramsInvalidGuess
		return m, json.Unmarshal(data, &m)
	case "PracticeSet":
		var m PracticeSet
		return m, json.Unmarshal(data, &m)
	case "PracticeResult":
		var m PracticeResult
		return m, json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unknown server message type %q", tag)
	}
}
