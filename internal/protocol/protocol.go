// Package protocol defines the JSON wire messages exchanged with game
// clients. Every message is an object with a "type" discriminator; nested
// unions (room state, connection updates, post-game info) follow the same
// convention.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MaxMessageSize is the inbound frame cap; larger payloads are dropped
// before decoding.
const MaxMessageSize = 500

// GameKind selects which game a room plays.
type GameKind string

const (
	GameWordBomb GameKind = "WordBomb"
	GameAnagrams GameKind = "Anagrams"
)

// Valid reports whether the kind is one of the known games.
func (g GameKind) Valid() bool {
	return g == GameWordBomb || g == GameAnagrams
}

// RoomSettings is mutable by the room owner while the room is in lobby.
type RoomSettings struct {
	Public   bool             `json:"public"`
	Game     GameKind         `json:"game"`
	WordBomb WordBombSettings `json:"word_bomb"`
}

// WordBombSettings holds the Word Bomb difficulty knobs.
type WordBombSettings struct {
	// MinWPM is the minimum words-per-prompt count a chosen prompt's group
	// must meet. Higher means easier prompts.
	MinWPM uint32 `json:"min_wpm"`
}

// DefaultRoomSettings are applied when a room is first created.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		Public:   false,
		Game:     GameWordBomb,
		WordBomb: WordBombSettings{MinWPM: 500},
	}
}

// ClientInfo is the per-client entry of a room snapshot.
type ClientInfo struct {
	UUID         uuid.UUID `json:"uuid"`
	Username     string    `json:"username"`
	Disconnected bool      `json:"disconnected"`
}

// RoomInfo is the full room snapshot sent to a newly attached socket.
type RoomInfo struct {
	Owner    uuid.UUID    `json:"owner"`
	Settings RoomSettings `json:"settings"`
	Clients  []ClientInfo `json:"clients"`
	State    RoomState    `json:"state"`
}

// UnmarshalJSON resolves the RoomState union.
func (r *RoomInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Owner    uuid.UUID       `json:"owner"`
		Settings RoomSettings    `json:"settings"`
		Clients  []ClientInfo    `json:"clients"`
		State    json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	state, err := decodeRoomState(raw.State)
	if err != nil {
		return err
	}
	*r = RoomInfo{Owner: raw.Owner, Settings: raw.Settings, Clients: raw.Clients, State: state}
	return nil
}

// WordBombPlayerData is the public view of a Word Bomb player.
type WordBombPlayerData struct {
	UUID  uuid.UUID `json:"uuid"`
	Input string    `json:"input"`
	Lives uint8     `json:"lives"`
}

// AnagramsPlayerData is the public view of an Anagrams player.
type AnagramsPlayerData struct {
	UUID      uuid.UUID `json:"uuid"`
	UsedWords []string  `json:"used_words"`
}

// tuple marshals v as a JSON array. The post-game stat entries are encoded
// as tuples rather than objects.
func tuple(v ...any) ([]byte, error) {
	return json.Marshal(v)
}

func untuple(data []byte, want int) ([]json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, err
	}
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d tuple elements, got %d", want, len(parts))
	}
	return parts, nil
}

// GuessStat is a (player, seconds, word) post-game entry.
type GuessStat struct {
	UUID    uuid.UUID
	Seconds float64
	Word    string
}

func (s GuessStat) MarshalJSON() ([]byte, error) {
	return tuple(s.UUID, s.Seconds, s.Word)
}

func (s *GuessStat) UnmarshalJSON(data []byte) error {
	parts, err := untuple(data, 3)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(parts[0], &s.UUID); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &s.Seconds); err != nil {
		return err
	}
	return json.Unmarshal(parts[2], &s.Word)
}

// WordStat is a (player, word) post-game entry.
type WordStat struct {
	UUID uuid.UUID
	Word string
}

func (s WordStat) MarshalJSON() ([]byte, error) {
	return tuple(s.UUID, s.Word)
}

func (s *WordStat) UnmarshalJSON(data []byte) error {
	parts, err := untuple(data, 2)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(parts[0], &s.UUID); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &s.Word)
}

// NumberStat is a (player, value) post-game entry.
type NumberStat struct {
	UUID  uuid.UUID
	Value float64
}

func (s NumberStat) MarshalJSON() ([]byte, error) {
	return tuple(s.UUID, s.Value)
}

func (s *NumberStat) UnmarshalJSON(data []byte) error {
	parts, err := untuple(data, 2)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(parts[0], &s.UUID); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &s.Value)
}

// ScoreStat is a (player, points) leaderboard entry.
type ScoreStat struct {
	UUID   uuid.UUID
	Points int
}

func (s ScoreStat) MarshalJSON() ([]byte, error) {
	return tuple(s.UUID, s.Points)
}

func (s *ScoreStat) UnmarshalJSON(data []byte) error {
	parts, err := untuple(data, 2)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(parts[0], &s.UUID); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &s.Points)
}

// WordsStat is a (player, words) post-game entry.
type WordsStat struct {
	UUID  uuid.UUID
	Words []string
}

func (s WordsStat) MarshalJSON() ([]byte, error) {
	return tuple(s.UUID, s.Words)
}

func (s *WordsStat) UnmarshalJSON(data []byte) error {
	parts, err := untuple(data, 2)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(parts[0], &s.UUID); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &s.Words)
}
