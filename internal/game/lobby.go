package game

import (
	"math/rand"
	"sort"
	"time"

	goaway "github.com/TwiN/go-away"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wordrush/wordrush/internal/protocol"
)

const (
	minStartPlayers  = 2
	countdownSeconds = 10
	practiceSetSize  = 50
)

// Lobby is the between-games state: who is ready, and the start countdown
// once enough players are.
type Lobby struct {
	ready     map[uuid.UUID]struct{}
	countdown *countdown
}

type countdown struct {
	timeLeft uint8
	task     *task
}

func newLobby() *Lobby {
	return &Lobby{ready: make(map[uuid.UUID]struct{})}
}

func (l *Lobby) readyList() []uuid.UUID {
	list := make([]uuid.UUID, 0, len(l.ready))
	for id := range l.ready {
		list = append(list, id)
	}
	sortUUIDs(list)
	return list
}

func (l *Lobby) stateInfo(uuid.UUID) protocol.RoomState {
	var starting *uint8
	if l.countdown != nil {
		t := l.countdown.timeLeft
		starting = &t
	}
	return protocol.LobbyState{Ready: l.readyList(), StartingCountdown: starting}
}

// Ready marks the sender ready and starts the countdown when that makes
// two. Already ready is a no-op.
func (s *Server) Ready(info SenderInfo) error {
	return s.withRoom(info.Room, func(room *Room) error {
		lobby, err := room.lobby()
		if err != nil {
			return err
		}
		if _, ok := lobby.ready[info.UUID]; ok {
			return nil
		}
		lobby.ready[info.UUID] = struct{}{}
		update := s.checkCountdown(room, lobby)
		room.broadcast(protocol.ReadyPlayers{Ready: lobby.readyList(), CountdownUpdate: update})
		return nil
	})
}

// Unready takes the sender off the ready set, stopping the countdown when
// fewer than two remain.
func (s *Server) Unready(info SenderInfo) error {
	return s.withRoom(info.Room, func(room *Room) error {
		lobby, err := room.lobby()
		if err != nil {
			return err
		}
		if _, ok := lobby.ready[info.UUID]; !ok {
			return nil
		}
		delete(lobby.ready, info.UUID)
		update := s.checkCountdown(room, lobby)
		room.broadcast(protocol.ReadyPlayers{Ready: lobby.readyList(), CountdownUpdate: update})
		return nil
	})
}

// StartEarly lets the owner skip the rest of the countdown.
func (s *Server) StartEarly(info SenderInfo) error {
	return s.withRoom(info.Room, func(room *Room) error {
		lobby, err := room.lobby()
		if err != nil {
			return err
		}
		if info.UUID != room.owner {
			return ErrNotRoomOwner
		}
		if len(lobby.ready) < minStartPlayers {
			return ErrNotEnoughPlayers
		}
		if lobby.countdown != nil {
			lobby.countdown.task.Abort()
			lobby.countdown = nil
		}
		s.startGame(room, lobby)
		return nil
	})
}

// SetRoomSettings replaces the settings. Owner only, lobby only.
func (s *Server) SetRoomSettings(info SenderInfo, settings protocol.RoomSettings) error {
	return s.withRoom(info.Room, func(room *Room) error {
		if _, err := room.lobby(); err != nil {
			return err
		}
		if info.UUID != room.owner {
			return ErrNotRoomOwner
		}
		room.settings = settings
		room.broadcast(protocol.SettingsChanged{RoomSettings: settings})
		return nil
	})
}

// Chat relays a chat line to the whole room. Public rooms get profanity
// censored; private rooms are relayed verbatim.
func (s *Server) Chat(info SenderInfo, content string) error {
	return s.withRoom(info.Room, func(room *Room) error {
		if room.settings.Public {
			content = goaway.Censor(content)
		}
		room.broadcast(protocol.ChatBroadcast{Author: info.UUID, Content: content})
		return nil
	})
}

// PracticeRequest sends the sender a batch of prompts or anagrams to
// train on between games.
func (s *Server) PracticeRequest(info SenderInfo, kind protocol.GameKind) error {
	return s.withRoom(info.Room, func(room *Room) error {
		set := make([]string, practiceSetSize)
		for i := range set {
			switch kind {
			case protocol.GameAnagrams:
				_, set[i] = s.words.RandomAnagram()
			default:
				set[i] = s.words.RandomPrompt(int(room.settings.WordBomb.MinWPM))
			}
		}
		room.sendTo(info.UUID, protocol.PracticeSet{Set: set})
		return nil
	})
}

// PracticeSubmission grades one practice answer. Input arrives already
// normalized. Practice anagrams accept words as short as two letters.
func (s *Server) PracticeSubmission(info SenderInfo, kind protocol.GameKind, prompt, input string) error {
	return s.withRoom(info.Room, func(room *Room) error {
		var correct bool
		switch kind {
		case protocol.GameAnagrams:
			correct = len(input) >= 2 && fitsPool(input, prompt) && s.words.IsValid(input)
		default:
			correct = containsPrompt(input, prompt) && s.words.IsValid(input)
		}
		room.sendTo(info.UUID, protocol.PracticeResult{Correct: correct})
		return nil
	})
}

// checkCountdown starts or stops the lobby countdown after a ready-set
// change and returns the transition to broadcast, if any.
func (s *Server) checkCountdown(room *Room, lobby *Lobby) protocol.CountdownUpdate {
	switch {
	case lobby.countdown == nil && len(lobby.ready) >= minStartPlayers:
		t := newTask()
		lobby.countdown = &countdown{timeLeft: countdownSeconds, task: t}
		go s.countdownRun(room.name, t)
		return protocol.CountdownInProgress{TimeLeft: countdownSeconds}
	case lobby.countdown != nil && len(lobby.ready) < minStartPlayers:
		lobby.countdown.task.Abort()
		lobby.countdown = nil
		return protocol.CountdownStopped{}
	}
	return nil
}

func (s *Server) countdownRun(roomName string, t *task) {
	for t.sleep(time.Second) {
		if !s.countdownTick(roomName, t) {
			return
		}
	}
}

// countdownTick advances the countdown by one second, starting the game
// when it hits zero. Reports whether the task should keep ticking. The
// task identity guard catches a tick racing its own cancellation.
func (s *Server) countdownTick(roomName string, t *task) bool {
	again := false
	_ = s.withRoom(roomName, func(room *Room) error {
		lobby, err := room.lobby()
		if err != nil {
			return nil
		}
		cd := lobby.countdown
		if cd == nil || cd.task != t {
			return nil
		}
		cd.timeLeft--
		if cd.timeLeft == 0 {
			lobby.countdown = nil
			if len(lobby.ready) >= minStartPlayers {
				s.startGame(room, lobby)
			}
			return nil
		}
		room.broadcast(protocol.StartingCountdown{TimeLeft: cd.timeLeft})
		again = true
		return nil
	})
	return again
}

// startGame moves the room from lobby into the configured game. Ready
// players become participants, in shuffled order, each issued a fresh
// rejoin token. Caller holds the room lock.
func (s *Server) startGame(room *Room, lobby *Lobby) {
	players := lobby.readyList()
	if len(players) < minStartPlayers {
		return
	}
	rand.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})

	for _, id := range players {
		if c, ok := room.clients[id]; ok {
			token := uuid.New()
			c.rejoinToken = &token
		}
	}

	switch room.settings.Game {
	case protocol.GameAnagrams:
		room.state = s.newAnagrams(room, players)
	default:
		room.state = s.newWordBomb(room, players)
	}

	s.log.WithFields(logrus.Fields{
		"room":    room.name,
		"game":    room.settings.Game,
		"players": len(players),
	}).Info("game started")

	for id, c := range room.clients {
		c.send(protocol.GameStarted{RejoinToken: c.rejoinToken, Game: room.state.stateInfo(id)})
	}
}

// endGame returns the room to lobby: retained clients are dropped, rejoin
// tokens cleared, and a new owner elected if the old one is gone. Caller
// holds the room lock; the sinks run outside it.
func (s *Server) endGame(room *Room, kind protocol.GameKind, info protocol.PostGameInfo, results []PlayerResult) {
	if s.Stats != nil {
		for _, res := range results {
			if c, ok := room.clients[res.ID]; ok && c.account != nil {
				go s.Stats.RecordResult(*c.account, res.Won, res.WordsGuessed, res.AvgWPM)
			}
		}
	}
	for id, c := range room.clients {
		if !c.Connected() {
			delete(room.clients, id)
			s.limiter.Forget(id)
		}
	}
	for _, c := range room.clients {
		c.rejoinToken = nil
	}
	newOwner := room.electOwner()
	room.broadcast(protocol.GameEnded{NewRoomOwner: newOwner, Info: info})
	room.state = newLobby()

	s.log.WithFields(logrus.Fields{"room": room.name, "game": kind}).Info("game ended")
	if s.Results != nil {
		go s.Results.PublishResult(room.name, kind, info)
	}
}

func sortUUIDs(list []uuid.UUID) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].String() < list[j].String()
	})
}
