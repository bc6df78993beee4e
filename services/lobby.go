package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/MakuD3v/Edu-Party-Mayhem/utils/logger"
)

// Lobby is the pre-match roster for one session code plus the handle to the
// running match, if any. Roster state is guarded by mu; the GameSession has
// its own serialization.
type Lobby struct {
	Code string

	mu      sync.Mutex
	hub     *Hub
	store   Store
	clock   clockwork.Clock
	timings Timings
	devMode bool

	hostID  uint
	order   []uint // join order
	players map[uint]*PlayerState
	conns   map[uint]uuid.UUID // user -> current connection
	session *GameSession

	onEmpty func()
}

// AddClient registers the connection and upserts the roster entry. When a
// match is running the hub registration goes through the session so the
// late-join snapshot is atomic with it. A second connection from the same
// user supersedes the first; l.conns tracks which socket currently speaks
// for the user.
func (l *Lobby) AddClient(c *Client) {
	l.mu.Lock()
	c.lobby = l

	if l.session != nil {
		l.session.AttachClient(l.hub, c)
	} else {
		l.hub.Register(l.Code, c)
	}

	if _, ok := l.players[c.userID]; !ok {
		l.order = append(l.order, c.userID)
	}
	l.players[c.userID] = &PlayerState{
		UserID: c.userID,
		Name:   c.name,
		IsHost: l.hostID == c.userID,
		Icon:   "🎓",
	}
	l.conns[c.userID] = c.id
	list := l.playerListLocked()
	l.mu.Unlock()

	logger.Infof("[Lobby %s] user %d (%s) joined on conn %s (connections=%d)",
		l.Code, c.userID, c.name, c.id, l.hub.Count(l.Code))
	l.hub.Broadcast(l.Code, PlayerListMessage{Type: MsgPlayerListUpdate, Players: list})
}

// RemoveClient handles a disconnect. Pre-match the player is pruned from
// the roster; an empty lobby with no running match dissolves. A player who
// drops mid-match stays in the session's active set and simply surfaces as
// a non-submitter at result time. A socket superseded by a reconnect is
// torn down without touching the roster.
func (l *Lobby) RemoveClient(c *Client) {
	l.hub.Unregister(l.Code, c)
	c.Close()

	l.mu.Lock()
	if l.conns[c.userID] != c.id {
		// A newer socket speaks for this user now; the roster stays
		l.mu.Unlock()
		logger.Infof("[Lobby %s] stale conn %s for user %d closed", l.Code, c.id, c.userID)
		return
	}
	delete(l.conns, c.userID)

	if _, ok := l.players[c.userID]; ok {
		delete(l.players, c.userID)
		for i, id := range l.order {
			if id == c.userID {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
	empty := len(l.players) == 0
	matchRunning := l.session != nil
	list := l.playerListLocked()
	l.mu.Unlock()

	if empty && !matchRunning {
		logger.Infof("[Lobby %s] empty with no active game, dissolving", l.Code)
		if l.store != nil {
			if err := l.store.SetSessionStatus(l.Code, "closed"); err != nil {
				logger.Errorf("[Lobby %s] failed to close session in DB: %v", l.Code, err)
			}
		}
		if l.onEmpty != nil {
			l.onEmpty()
		}
		return
	}

	l.hub.Broadcast(l.Code, PlayerListMessage{Type: MsgPlayerListUpdate, Players: list})
}

// HandleMessage routes one decoded client message.
func (l *Lobby) HandleMessage(c *Client, msg ClientMessage) {
	switch msg.Type {
	case MsgGetPlayers:
		l.broadcastPlayerList()

	case MsgPlayerReady:
		ready := true
		if msg.IsReady != nil {
			ready = *msg.IsReady
		}
		l.setReady(c.userID, ready)

	case MsgStartGame:
		l.StartGame(c, msg.ForceTest)

	case MsgPlayerReadyForRound:
		if s := l.Session(); s != nil {
			s.MarkPlayerReady(c.userID)
		} else {
			logger.Infof("[Lobby %s] readiness ack from user %d but no active game", l.Code, c.userID)
		}

	case MsgRoundComplete:
		if s := l.Session(); s != nil {
			s.HandlePlayerFinish(c.userID, msg.Score)
		} else {
			logger.Infof("[Lobby %s] ROUND_COMPLETE from user %d but no active game", l.Code, c.userID)
		}

	case MsgGameAction:
		if s := l.Session(); s != nil && msg.Action != nil {
			if outcome, ok := s.HandleAction(c.userID, *msg.Action); ok {
				l.hub.SendTo(l.Code, c, ActionResultMessage{Type: MsgGameActionResult, Outcome: outcome})
			}
		}

	case MsgGetGameState:
		if s := l.Session(); s != nil {
			s.SendStateTo(l.hub, c)
		} else {
			logger.Infof("[Lobby %s] GET_GAME_STATE from user %d but no active game", l.Code, c.userID)
		}

	default:
		logger.Infof("[Lobby %s] unknown message type %q from user %d", l.Code, msg.Type, c.userID)
	}
}

// StartGame validates the start command and, if the gate passes, creates
// the match and kicks off the start sequence. Only the host may start;
// everyone must be ready with at least 2 players unless test mode or the
// global permissive mode applies.
func (l *Lobby) StartGame(c *Client, forceTest bool) {
	l.mu.Lock()

	if c.userID != l.hostID {
		l.mu.Unlock()
		l.hub.SendTo(l.Code, c, ErrorMessage{Type: MsgError, Message: "Only the host can start the game"})
		return
	}
	if l.session != nil {
		l.mu.Unlock()
		l.hub.SendTo(l.Code, c, ErrorMessage{Type: MsgError, Message: "Game already started"})
		return
	}

	// The host is implicitly ready by clicking start
	if p, ok := l.players[c.userID]; ok {
		p.IsReady = true
	}

	allReady := true
	for _, p := range l.players {
		if !p.IsReady {
			allReady = false
			break
		}
	}
	count := len(l.players)

	shouldStart := forceTest || (allReady && count >= 2) || l.devMode
	if !shouldStart {
		l.mu.Unlock()
		l.hub.SendTo(l.Code, c, ErrorMessage{
			Type: MsgError,
			Message: fmt.Sprintf("Cannot start: Need at least 2 players and all ready (current: %d players, all_ready: %t)",
				count, allReady),
		})
		return
	}

	players := l.playerListLocked()
	session := NewGameSession(l.Code, players, forceTest, SessionDeps{
		Hub:     l.hub,
		Store:   l.store,
		Clock:   l.clock,
		Timings: l.timings,
		OnEnd:   l.endMatch,
	})
	l.session = session
	l.mu.Unlock()

	logger.Infof("[Lobby %s] host %d started match with %d player(s) (test=%t)", l.Code, c.userID, len(players), forceTest)

	if l.store != nil {
		if err := l.store.SetSessionStatus(l.Code, "playing"); err != nil {
			logger.Errorf("[Lobby %s] failed to update session status: %v", l.Code, err)
		}
	}

	session.Run()
}

// Session returns the running match, if any.
func (l *Lobby) Session() *GameSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// endMatch drops the concluded session; the lobby itself dissolves once the
// last connection leaves.
func (l *Lobby) endMatch() {
	l.mu.Lock()
	l.session = nil
	empty := len(l.players) == 0
	l.mu.Unlock()

	if empty && l.onEmpty != nil {
		l.onEmpty()
	}
}

func (l *Lobby) setReady(userID uint, ready bool) {
	l.mu.Lock()
	if p, ok := l.players[userID]; ok {
		p.IsReady = ready
	}
	list := l.playerListLocked()
	l.mu.Unlock()

	l.hub.Broadcast(l.Code, PlayerListMessage{Type: MsgPlayerListUpdate, Players: list})
}

func (l *Lobby) broadcastPlayerList() {
	l.mu.Lock()
	list := l.playerListLocked()
	l.mu.Unlock()

	l.hub.Broadcast(l.Code, PlayerListMessage{Type: MsgPlayerListUpdate, Players: list})
}

func (l *Lobby) playerListLocked() []PlayerState {
	list := make([]PlayerState, 0, len(l.players))
	for _, id := range l.order {
		if p, ok := l.players[id]; ok {
			list = append(list, *p)
		}
	}
	return list
}
