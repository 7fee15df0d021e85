package protocol

import (
	"encoding/json"
	"fmt"
)

// ClientMessage is the union of messages a client may send.
type ClientMessage interface {
	isClientMessage()
}

// Ping requests a Pong echoing the same timestamp.
type Ping struct {
	Timestamp uint64 `json:"timestamp"`
}

// Ready marks the sender as ready in the lobby.
type Ready struct{}

// Unready removes the sender from the ready set.
type Unready struct{}

// StartEarly asks to skip the rest of the countdown. Owner only.
type StartEarly struct{}

// SettingsUpdate replaces the room settings. Owner only, lobby only.
// Wire tag: "RoomSettings".
type SettingsUpdate struct {
	RoomSettings
}

// ChatMessage sends a chat line to the room.
type ChatMessage struct {
	Content string `json:"content"`
}

// WordBombInput is a live preview of what the sender is typing.
type WordBombInput struct {
	Input string `json:"input"`
}

// WordBombGuess submits a word for the current prompt.
type WordBombGuess struct {
	Word string `json:"word"`
}

// AnagramsGuess submits a subword of the current anagram.
type AnagramsGuess struct {
	Word string `json:"word"`
}

// PracticeRequest asks for a batch of practice prompts or anagrams.
type PracticeRequest struct {
	Game GameKind `json:"game"`
}

// PracticeSubmission checks a single practice answer.
type PracticeSubmission struct {
	Game   GameKind `json:"game"`
	Prompt string   `json:"prompt"`
	Input  string   `json:"input"`
}

func (Ping) isClientMessage()               {}
func (Ready) isClientMessage()              {}
func (Unready) isClientMessage()            {}
func (StartEarly) isClientMessage()         {}
func (SettingsUpdate) isClientMessage()     {}
func (ChatMessage) isClientMessage()        {}
func (WordBombInput) isClientMessage()      {}
func (WordBombGuess) isClientMessage()      {}
func (AnagramsGuess) isClientMessage()      {}
func (PracticeRequest) isClientMessage()    {}
func (PracticeSubmission) isClientMessage() {}

// DecodeClientMessage parses one inbound frame.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	tag, err := peekTag(data)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Ping":
		var m Ping
		return m, json.Unmarshal(data, &m)
	case "Ready":
		return Ready{}, nil
	case "Unready":
		return Unready{}, nil
	case "StartEarly":
		return StartEarly{}, nil
	case "RoomSettings":
		var m SettingsUpdate
		if err := json.Unmarshal(data, &m.RoomSettings); err != nil {
			return nil, err
		}
		if !m.Game.Valid() {
			return nil, fmt.Errorf("unknown game %q", m.Game)
		}
		return m, nil
	case "ChatMessage":
		var m ChatMessage
		return m, json.Unmarshal(data, &m)
	case "WordBombInput":
		var m WordBombInput
		return m, json.Unmarshal(data, &m)
	case "WordBombGuess":
		var m WordBombGuess
		return m, json.Unmarshal(data, &m)
	case "AnagramsGuess":
		var m AnagramsGuess
		return m, json.Unmarshal(data, &m)
	case "PracticeRequest":
		var m PracticeRequest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		if !m.Game.Valid() {
			return nil, fmt.Errorf("unknown game %q", m.Game)
		}
		return m, nil
	case "PracticeSubmission":
		var m PracticeSubmission
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		if !m.Game.Valid() {
			return nil, fmt.Errorf("unknown game %q", m.Game)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown client message type %q", tag)
	}
}

// EncodeClientMessage is the inverse of DecodeClientMessage. The server
// never sends these; it exists for tests and client tooling.
func EncodeClientMessage(m ClientMessage) ([]byte, error) {
	switch msg := m.(type) {
	case Ping:
		return encodeTagged("Ping", msg)
	case Ready:
		return encodeTagged("Ready", msg)
	case Unready:
		return encodeTagged("Unready", msg)
	case StartEarly:
		return encodeTagged("StartEarly", msg)
	case SettingsUpdate:
		return encodeTagged("RoomSettings", msg.RoomSettings)
	case ChatMessage:
		return encodeTagged("ChatMessage", msg)
	case WordBombInput:
		return encodeTagged("WordBombInput", msg)
	case WordBombGuess:
		return encodeTagged("WordBombGuess", msg)
	case AnagramsGuess:
		return encodeTagged("AnagramsGuess", msg)
	case PracticeRequest:
		return encodeTagged("PracticeRequest", msg)
	case PracticeSubmission:
		return encodeTagged("PracticeSubmission", msg)
	default:
		return nil, fmt.Errorf("unknown client message %T", m)
	}
}
