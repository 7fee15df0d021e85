package game

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wordrush/wordrush/internal/protocol"
	"github.com/wordrush/wordrush/internal/words"
)

const (
	anagramsDuration = 30 * time.Second
	minAnagramLen    = 3
)

// Anagrams is the free-for-all game: everyone mines words out of the same
// shuffled six-letter word until the clock runs out. A word scored by one
// player is gone for everyone.
type Anagrams struct {
	task     *task
	original string
	anagram  string
	players  []*anagramsPlayer
}

type anagramsPlayer struct {
	id        uuid.UUID
	usedWords []string
}

func (s *Server) newAnagrams(room *Room, ids []uuid.UUID) *Anagrams {
	original, shuffled := s.words.RandomAnagram()
	players := make([]*anagramsPlayer, len(ids))
	for i, id := range ids {
		players[i] = &anagramsPlayer{id: id}
	}
	g := &Anagrams{task: newTask(), original: original, anagram: shuffled, players: players}
	go s.anagramsRun(room.name, g.task)
	return g
}

func (g *Anagrams) stateInfo(uuid.UUID) protocol.RoomState {
	players := make([]protocol.AnagramsPlayerData, len(g.players))
	for i, p := range g.players {
		used := append([]string(nil), p.usedWords...)
		sort.Strings(used)
		players[i] = protocol.AnagramsPlayerData{UUID: p.id, UsedWords: used}
	}
	return protocol.AnagramsState{Players: players, Anagram: g.anagram}
}

func (g *Anagrams) player(id uuid.UUID) *anagramsPlayer {
	for _, p := range g.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (g *Anagrams) wordUsed(word string) bool {
	for _, p := range g.players {
		for _, w := range p.usedWords {
			if w == word {
				return true
			}
		}
	}
	return false
}

// classifyGuess checks a normalized guess: long enough, buildable from the
// anagram's letters, a real word, and not yet taken, in that order.
func (g *Anagrams) classifyGuess(src *words.Source, guess string) (protocol.AnagramsGuessError, bool) {
	switch {
	case len(guess) < minAnagramLen:
		return protocol.AnagramsNotLongEnough, false
	case !fitsPool(guess, g.anagram):
		return protocol.AnagramsPromptMismatch, false
	case !src.IsValid(guess):
		return protocol.AnagramsNotEnglish, false
	case g.wordUsed(guess):
		return protocol.AnagramsAlreadyUsed, false
	}
	return "", true
}

// AnagramsGuess resolves the sender's guess. word arrives normalized.
// Rejections go only to the sender; scores are broadcast.
func (s *Server) AnagramsGuess(info SenderInfo, word string) error {
	return s.withRoom(info.Room, func(room *Room) error {
		g, err := room.anagrams()
		if err != nil {
			return err
		}
		p := g.player(info.UUID)
		if p == nil {
			return ErrPlayerNotFound
		}
		if reason, ok := g.classifyGuess(s.words, word); !ok {
			room.sendTo(info.UUID, protocol.AnagramsInvalidGuess{Reason: reason})
			return nil
		}
		p.usedWords = append(p.usedWords, word)
		room.broadcast(protocol.AnagramsCorrectGuess{UUID: info.UUID, Guess: word})
		return nil
	})
}

func (s *Server) anagramsRun(roomName string, t *task) {
	if t.sleep(anagramsDuration) {
		s.anagramsFinish(roomName, t)
	}
}

// anagramsFinish ends the round when the clock expires. The task guard
// skips a wakeup that lost a race with a restarted room.
func (s *Server) anagramsFinish(roomName string, t *task) {
	_ = s.withRoom(roomName, func(room *Room) error {
		g, err := room.anagrams()
		if err != nil {
			return nil
		}
		if g.task != t {
			return nil
		}
		sum := g.summary()
		s.endGame(room, protocol.GameAnagrams, sum, g.results(sum))
		return nil
	})
}

// fitsPool reports whether word can be assembled from pool's letters
// without reusing any of them.
func fitsPool(word, pool string) bool {
	var counts [26]int
	for i := 0; i < len(pool); i++ {
		c := pool[i]
		if c >= 'a' && c <= 'z' {
			counts[c-'a']++
		}
	}
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c < 'a' || c > 'z' {
			return false
		}
		counts[c-'a']--
		if counts[c-'a'] < 0 {
			return false
		}
	}
	return true
}
