package game

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wordrush/wordrush/internal/protocol"
)

// Per-client inbound message rate.
const (
	messagesPerSecond = 8
	messageBurst      = 24
)

const (
	maxChatBytes    = 250
	maxInputBytes   = 35
	maxGuessBytes   = 35
	maxAnagramBytes = 6
)

// HandleMessage routes one decoded inbound message. A failed operation is
// logged and reported back to its sender only; the room is untouched.
func (s *Server) HandleMessage(info SenderInfo, msg protocol.ClientMessage) {
	err := s.dispatch(info, msg)
	if err == nil {
		return
	}
	s.log.WithFields(logrus.Fields{
		"room":    info.Room,
		"uuid":    info.UUID,
		"message": fmt.Sprintf("%T", msg),
	}).WithError(err).Warn("message rejected")
	s.sendError(info, err)
}

func (s *Server) dispatch(info SenderInfo, msg protocol.ClientMessage) error {
	if !s.limiter.Allow(info.UUID) {
		return ErrRateLimited
	}

	switch m := msg.(type) {
	case protocol.Ping:
		return s.withRoom(info.Room, func(room *Room) error {
			room.sendTo(info.UUID, protocol.Pong{Timestamp: m.Timestamp})
			return nil
		})
	case protocol.Ready:
		return s.Ready(info)
	case protocol.Unready:
		return s.Unready(info)
	case protocol.StartEarly:
		return s.StartEarly(info)
	case protocol.SettingsUpdate:
		return s.SetRoomSettings(info, m.RoomSettings)
	case protocol.ChatMessage:
		if len(m.Content) > maxChatBytes {
			return ErrChatTooLong
		}
		return s.Chat(info, m.Content)
	case protocol.WordBombInput:
		if len(m.Input) > maxInputBytes {
			return ErrInputTooLong
		}
		return s.WordBombInput(info, m.Input)
	case protocol.WordBombGuess:
		word := normalizeWord(m.Word)
		if len(word) > maxGuessBytes {
			return ErrGuessTooLong
		}
		return s.WordBombGuess(info, word)
	case protocol.AnagramsGuess:
		word := normalizeWord(m.Word)
		if len(word) > maxAnagramBytes {
			return ErrGuessTooLong
		}
		return s.AnagramsGuess(info, word)
	case protocol.PracticeRequest:
		return s.PracticeRequest(info, m.Game)
	case protocol.PracticeSubmission:
		return s.PracticeSubmission(info, m.Game, normalizeWord(m.Prompt), normalizeWord(m.Input))
	}
	return fmt.Errorf("unhandled message %T", msg)
}

func (s *Server) sendError(info SenderInfo, err error) {
	_ = s.withRoom(info.Room, func(room *Room) error {
		room.sendTo(info.UUID, protocol.ErrorMessage{Content: "server error: " + err.Error()})
		return nil
	})
}

// normalizeWord lowercases a guess and strips everything that is not an
// ASCII letter.
func normalizeWord(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 'a' - 'A')
		}
	}
	return b.String()
}
