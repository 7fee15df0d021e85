package game

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wordrush/wordrush/internal/protocol"
	"github.com/wordrush/wordrush/internal/words"
)

const (
	startingLives = 2

	// A correct guess shortens the fuse by the time taken, never below
	// minTurnSeconds. Timeouts resample the fuse from the start range.
	minTurnSeconds  = 6.0
	minTimerSeconds = 10.0
	maxTimerSeconds = 30.0
)

// extraLifeLetters are the letters a player must collect across their
// correct guesses to earn a life: the alphabet less x and z.
const extraLifeLetters = "abcdefghijklmnopqrstuvwy"

// WordBomb is the turn-based prompt game. One fuse task is live at a
// time; it carries the prompt it was armed for, so a stale wakeup after
// the prompt moved on is ignored.
type WordBomb struct {
	settings  protocol.WordBombSettings
	startedAt time.Time
	timer     fuse

	prompt        string
	promptUses    int
	missedPrompts []string

	players []*wordBombPlayer
	turn    uuid.UUID
}

type fuse struct {
	task   *task
	start  time.Time
	length float64
}

type wordBombPlayer struct {
	id          uuid.UUID
	input       string
	lives       uint8
	usedWords   []usedWord
	usedLetters map[byte]struct{}
}

// usedWord records a correct guess and how long into the turn it landed.
type usedWord struct {
	at   time.Duration
	word string
}

func (s *Server) newWordBomb(room *Room, ids []uuid.UUID) *WordBomb {
	now := time.Now()
	players := make([]*wordBombPlayer, len(ids))
	for i, id := range ids {
		players[i] = &wordBombPlayer{
			id:          id,
			lives:       startingLives,
			usedLetters: make(map[byte]struct{}),
		}
	}
	g := &WordBomb{
		settings:  room.settings.WordBomb,
		startedAt: now,
		timer:     fuse{task: newTask(), start: now, length: randomFuseLength()},
		prompt:    s.words.RandomPrompt(int(room.settings.WordBomb.MinWPM)),
		players:   players,
		turn:      ids[0],
	}
	go s.wordBombFuseRun(room.name, g.timer.task, g.timer.length, g.prompt)
	return g
}

func randomFuseLength() float64 {
	return minTimerSeconds + rand.Float64()*(maxTimerSeconds-minTimerSeconds)
}

func (g *WordBomb) stateInfo(viewer uuid.UUID) protocol.RoomState {
	players := make([]protocol.WordBombPlayerData, len(g.players))
	for i, p := range g.players {
		players[i] = protocol.WordBombPlayerData{UUID: p.id, Input: p.input, Lives: p.lives}
	}
	var letters []string
	if p := g.player(viewer); p != nil && len(p.usedLetters) > 0 {
		for c := range p.usedLetters {
			letters = append(letters, string(c))
		}
		sort.Strings(letters)
	}
	return protocol.WordBombState{
		Players:     players,
		Turn:        g.turn,
		Prompt:      g.prompt,
		UsedLetters: letters,
	}
}

func (g *WordBomb) player(id uuid.UUID) *wordBombPlayer {
	for _, p := range g.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (g *WordBomb) alive() []*wordBombPlayer {
	var out []*wordBombPlayer
	for _, p := range g.players {
		if p.lives > 0 {
			out = append(out, p)
		}
	}
	return out
}

// nextAlive returns the first player with lives left after from in seat
// order, wrapping around. With only from alive it returns from itself.
func (g *WordBomb) nextAlive(from uuid.UUID) (uuid.UUID, error) {
	start := 0
	for i, p := range g.players {
		if p.id == from {
			start = i
			break
		}
	}
	for off := 1; off <= len(g.players); off++ {
		p := g.players[(start+off)%len(g.players)]
		if p.lives > 0 {
			return p.id, nil
		}
	}
	return uuid.Nil, ErrNoPlayersAlive
}

func (g *WordBomb) wordUsed(word string) bool {
	for _, p := range g.players {
		for _, u := range p.usedWords {
			if u.word == word {
				return true
			}
		}
	}
	return false
}

// classifyGuess checks a normalized guess against the current prompt, the
// dictionary and the already-used set, in that order.
func (g *WordBomb) classifyGuess(src *words.Source, guess string) (protocol.WordBombGuessError, bool) {
	switch {
	case !containsPrompt(guess, g.prompt):
		return protocol.WordBombPromptNotIn, false
	case !src.IsValid(guess):
		return protocol.WordBombNotEnglish, false
	case g.wordUsed(guess):
		return protocol.WordBombAlreadyUsed, false
	}
	return "", true
}

// recordGuess applies a correct guess: records it for stats, accrues
// letters toward an extra life, trims the fuse by the time taken, deals a
// fresh prompt and hands the turn on. Reports whether the guess earned an
// extra life.
func (g *WordBomb) recordGuess(src *words.Source, word string) (extraLife bool) {
	p := g.player(g.turn)
	if p == nil {
		return false
	}
	now := time.Now()

	p.usedWords = append(p.usedWords, usedWord{at: now.Sub(g.timer.start), word: word})
	for i := 0; i < len(word); i++ {
		p.usedLetters[word[i]] = struct{}{}
	}
	if p.hasExtraLifeLetters() {
		p.lives++
		clear(p.usedLetters)
		extraLife = true
	}

	g.timer.length = math.Max(minTurnSeconds, g.timer.length-now.Sub(g.timer.start).Seconds())

	g.rotatePrompt(src)

	p.input = ""
	if next, err := g.nextAlive(g.turn); err == nil {
		g.turn = next
	}
	return extraLife
}

// rotatePrompt deals a fresh prompt, retrying a few times so it differs
// from the current one, and resets its use count.
func (g *WordBomb) rotatePrompt(src *words.Source) {
	for attempts := 0; attempts < 10; attempts++ {
		next := src.RandomPrompt(int(g.settings.MinWPM))
		if next != g.prompt {
			g.prompt = next
			break
		}
	}
	g.promptUses = 0
}

func (p *wordBombPlayer) hasExtraLifeLetters() bool {
	for i := 0; i < len(extraLifeLetters); i++ {
		if _, ok := p.usedLetters[extraLifeLetters[i]]; !ok {
			return false
		}
	}
	return true
}

// WordBombInput updates the sender's live typing preview.
func (s *Server) WordBombInput(info SenderInfo, input string) error {
	return s.withRoom(info.Room, func(room *Room) error {
		g, err := room.wordBomb()
		if err != nil {
			return err
		}
		p := g.player(info.UUID)
		if p == nil {
			return ErrPlayerNotFound
		}
		p.input = input
		room.broadcast(protocol.InputUpdate{UUID: info.UUID, Input: input})
		return nil
	})
}

// WordBombGuess resolves the sender's guess. word arrives normalized.
func (s *Server) WordBombGuess(info SenderInfo, word string) error {
	return s.withRoom(info.Room, func(room *Room) error {
		g, err := room.wordBomb()
		if err != nil {
			return err
		}
		if g.player(info.UUID) == nil {
			return ErrPlayerNotFound
		}
		if g.turn != info.UUID {
			return ErrOutOfTurn
		}

		if reason, ok := g.classifyGuess(s.words, word); !ok {
			room.broadcast(protocol.WordBombInvalidGuess{UUID: info.UUID, Reason: reason})
			return nil
		}

		extraLife := g.recordGuess(s.words, word)

		g.timer.task.Abort()
		g.timer.task = newTask()
		g.timer.start = time.Now()
		go s.wordBombFuseRun(room.name, g.timer.task, g.timer.length, g.prompt)

		var lifeChange int8
		if extraLife {
			lifeChange = 1
		}
		room.broadcast(protocol.WordBombPrompt{
			CorrectGuess: &word,
			LifeChange:   lifeChange,
			Prompt:       g.prompt,
			Turn:         g.turn,
		})
		return nil
	})
}

func (s *Server) wordBombFuseRun(roomName string, t *task, length float64, prompt string) {
	if t.sleep(time.Duration(length * float64(time.Second))) {
		s.wordBombTimeout(roomName, prompt)
	}
}

// wordBombTimeout fires when the fuse armed for prompt runs out: the turn
// holder loses a life and either the game ends or a fresh prompt, fuse
// and turn are dealt. A wakeup for a superseded prompt does nothing.
func (s *Server) wordBombTimeout(roomName, prompt string) {
	_ = s.withRoom(roomName, func(room *Room) error {
		g, err := room.wordBomb()
		if err != nil {
			return nil
		}
		if g.prompt != prompt {
			return nil
		}
		p := g.player(g.turn)
		if p == nil {
			return nil
		}
		if p.lives > 0 {
			p.lives--
		}
		g.missedPrompts = append(g.missedPrompts, g.prompt)

		// The prompt stays up across a single miss so the next player
		// still faces it, then rotates.
		g.promptUses++
		if g.promptUses > 1 {
			g.rotatePrompt(s.words)
		}

		if alive := g.alive(); len(alive) <= 1 {
			var winner uuid.UUID
			if len(alive) == 1 {
				winner = alive[0].id
			}
			sum := g.summary(winner)
			s.endGame(room, protocol.GameWordBomb, sum, g.results(winner, sum))
			return nil
		}

		next, err := g.nextAlive(g.turn)
		if err != nil {
			return nil
		}
		g.turn = next
		g.timer.length = randomFuseLength()
		g.timer.start = time.Now()
		g.timer.task = newTask()
		go s.wordBombFuseRun(room.name, g.timer.task, g.timer.length, g.prompt)

		room.broadcast(protocol.WordBombPrompt{
			LifeChange: -1,
			Prompt:     g.prompt,
			Turn:       g.turn,
		})
		return nil
	})
}

func containsPrompt(word, prompt string) bool {
	return strings.Contains(word, prompt)
}
