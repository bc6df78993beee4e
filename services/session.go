package services

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MakuD3v/Edu-Party-Mayhem/games"
	"github.com/MakuD3v/Edu-Party-Mayhem/utils/logger"
)

type SessionState string

const (
	StatePendingSync  SessionState = "ROUND_PENDING_SYNC"
	StateActive       SessionState = "ROUND_ACTIVE"
	StateResults      SessionState = "ROUND_RESULTS"
	StateIntermission SessionState = "INTERMISSION"
	StateEnded        SessionState = "SESSION_ENDED"
)

// TotalRounds is the fixed match length; games are drawn from the registry
// without repeats.
const TotalRounds = 3

// Timings collects every pause and deadline the session schedules. Tests
// zero most of them out.
type Timings struct {
	StartRedirect     time.Duration // clients navigating to the game view
	LeadIn            time.Duration // client intro/tutorial/countdown before play
	Grace             time.Duration // straggler submissions after timer expiry
	ResultsPause      time.Duration
	IntermissionPause time.Duration
	EndPause          time.Duration
	ReadySync         time.Duration // readiness barrier bound; 0 disables it
}

func DefaultTimings() Timings {
	return Timings{
		StartRedirect:     3 * time.Second,
		LeadIn:            15 * time.Second,
		Grace:             2 * time.Second,
		ResultsPause:      3 * time.Second,
		IntermissionPause: 3 * time.Second,
		EndPause:          5 * time.Second,
		ReadySync:         30 * time.Second,
	}
}

// RoundResult is one player's submission for the current round.
type RoundResult struct {
	Score    float64
	Arrival  time.Time
	Finished bool
}

// SessionDeps are the collaborators a session needs; Store and OnEnd may be
// nil.
type SessionDeps struct {
	Hub     Broadcaster
	Store   Store
	Clock   clockwork.Clock
	Timings Timings
	OnEnd   func()
}

// GameSession drives one lobby's match: round progression, the readiness
// barrier, submission tracking, elimination, and timer lifecycle. All state
// is guarded by mu; inbound messages and scheduled continuations both
// serialize through it. Lock order is session.mu -> hub.mu, never the
// reverse, so broadcasts are issued while holding mu (hub enqueue never
// blocks).
type GameSession struct {
	Code string

	mu      sync.Mutex
	clock   clockwork.Clock
	rng     *rand.Rand
	hub     Broadcaster
	store   Store
	timings Timings
	onEnd   func()

	state             SessionState
	currentRound      int
	totalRounds       int
	activePlayers     []PlayerState
	eliminatedPlayers []PlayerState // elimination order preserved
	gameHistory       []string
	game              games.MiniGame
	config            *games.Config
	mode              games.Mode
	slots             int
	isTestMode        bool

	expectedPlayers int
	readyForRound   map[uint]bool
	synced          bool

	finishedPlayers []uint // arrival order
	roundResults    map[uint]*RoundResult
	roundOver       bool

	timer     *RoundTimer
	syncTimer *RoundTimer
}

func NewGameSession(code string, players []PlayerState, isTestMode bool, deps SessionDeps) *GameSession {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &GameSession{
		Code:          code,
		clock:         clock,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		hub:           deps.Hub,
		store:         deps.Store,
		timings:       deps.Timings,
		onEnd:         deps.OnEnd,
		state:         StatePendingSync,
		currentRound:  1,
		totalRounds:   TotalRounds,
		activePlayers: append([]PlayerState(nil), players...),
		isTestMode:    isTestMode,
		readyForRound: make(map[uint]bool),
		roundResults:  make(map[uint]*RoundResult),
	}
}

// Run kicks off the start sequence on its own goroutine so the caller's
// message loop is never blocked by the redirect pause.
func (s *GameSession) Run() {
	go s.runStartSequence()
}

func (s *GameSession) runStartSequence() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Session %s] panic during start sequence: %v", s.Code, r)
			s.hub.Broadcast(s.Code, ErrorMessage{Type: MsgError, Message: "Failed to start game"})
		}
	}()

	s.mu.Lock()
	s.hub.Broadcast(s.Code, GameStartMessage{
		Type:        MsgGameStart,
		SessionCode: s.Code,
		Message:     "Game is starting! Redirecting to game...",
	})
	s.mu.Unlock()

	// Clients tear down the lobby socket and reconnect from the game view
	s.clock.Sleep(s.timings.StartRedirect)

	s.startRound()
}

func (s *GameSession) startRound() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateEnded {
		return
	}

	s.expectedPlayers = len(s.activePlayers)
	s.synced = false
	s.readyForRound = make(map[uint]bool)
	s.finishedPlayers = nil
	s.roundResults = make(map[uint]*RoundResult)
	s.roundOver = false
	s.slots = slotsForRound(len(s.activePlayers), s.currentRound, s.totalRounds)

	game, reset := games.Pick(s.rng, s.gameHistory)
	if reset {
		s.gameHistory = nil
	}
	s.gameHistory = append(s.gameHistory, game.Name())
	s.game = game

	cfg := game.Start(gamePlayers(s.activePlayers))
	s.config = &cfg
	s.mode = cfg.Mode
	if s.mode == "" {
		// Games that don't declare a mode: a win target means race
		if cfg.WinScore > 0 {
			s.mode = games.ModeRace
		} else {
			s.mode = games.ModeTimed
		}
	}

	s.state = StateActive

	if s.mode == games.ModeTimed && cfg.TimeLimit > 0 {
		limit := time.Duration(cfg.TimeLimit)*time.Second + s.timings.LeadIn
		round := s.currentRound
		s.timer = StartRoundTimer(s.clock, limit, func() { s.onRoundTimerExpired(round) })
	}
	if s.timings.ReadySync > 0 {
		s.syncTimer = StartRoundTimer(s.clock, s.timings.ReadySync, s.forceRoundSync)
	}

	s.hub.Broadcast(s.Code, s.roundStartMessage())
	logger.Infof("[Session %s] round %d: %s mode=%s active=%d slots=%d",
		s.Code, s.currentRound, game.Name(), s.mode, len(s.activePlayers), s.slots)
}

func (s *GameSession) roundStartMessage() RoundStartMessage {
	msg := RoundStartMessage{
		Type:            MsgRoundStart,
		Round:           s.currentRound,
		TotalRounds:     s.totalRounds,
		ActivePlayers:   len(s.activePlayers),
		EliminatedCount: len(s.eliminatedPlayers),
		IsTestMode:      s.isTestMode,
		SlotsAvailable:  s.slots,
		IsSynced:        s.synced,
	}
	if s.config != nil {
		msg.Config = *s.config
	}
	return msg
}

// AttachClient registers the connection and delivers the current round
// snapshot as a single atomic step with respect to this session's
// broadcasts, so nothing can fall in the gap between snapshot and
// registration.
func (s *GameSession) AttachClient(hub *Hub, c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hub.Register(s.Code, c)
	if s.config == nil {
		return
	}

	hub.SendTo(s.Code, c, s.roundStartMessage())
	if s.synced {
		// Round already synced; unblock the late joiner immediately
		hub.SendTo(s.Code, c, AllPlayersReadyMessage{Type: MsgAllPlayersReady})
	}
}

// SendStateTo re-sends the ROUND_START snapshot, the fallback path for a
// client that missed the broadcast.
func (s *GameSession) SendStateTo(hub *Hub, c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		logger.Infof("[Session %s] state requested by user %d but no round is active", s.Code, c.userID)
		return
	}
	hub.SendTo(s.Code, c, s.roundStartMessage())
}

// MarkPlayerReady records a readiness acknowledgement. The round's logical
// clock must not start until every expected player has acknowledged, since
// clients run local intro sequences of varying duration first.
func (s *GameSession) MarkPlayerReady(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.synced || s.state != StateActive {
		return
	}
	if !s.isActivePlayer(userID) {
		logger.Infof("[Session %s] ignoring readiness ack from non-active user %d", s.Code, userID)
		return
	}

	s.readyForRound[userID] = true
	logger.Infof("[Session %s] player %d ready for round (%d/%d)",
		s.Code, userID, len(s.readyForRound), s.expectedPlayers)

	if len(s.readyForRound) >= s.expectedPlayers {
		s.completeSyncLocked()
	}
}

func (s *GameSession) completeSyncLocked() {
	s.synced = true
	s.readyForRound = make(map[uint]bool)
	if s.syncTimer != nil {
		s.syncTimer.Cancel()
		s.syncTimer = nil
	}
	s.hub.Broadcast(s.Code, AllPlayersReadyMessage{
		Type:    MsgAllPlayersReady,
		Message: "All players synchronized! Starting game...",
	})
	logger.Infof("[Session %s] round %d synced", s.Code, s.currentRound)
}

// forceRoundSync unblocks the barrier when stragglers never acknowledge,
// so one hung client cannot stall the whole lobby.
func (s *GameSession) forceRoundSync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.synced || s.state != StateActive {
		return
	}
	logger.Warnf("[Session %s] readiness barrier timed out at %d/%d acks, proceeding without stragglers",
		s.Code, len(s.readyForRound), s.expectedPlayers)
	s.completeSyncLocked()
}

// HandlePlayerFinish records a trusted ROUND_COMPLETE submission and checks
// the round completion conditions: race quota reached, or (timed) all
// active players submitted.
func (s *GameSession) HandlePlayerFinish(userID uint, score float64) {
	s.mu.Lock()

	if s.state != StateActive || s.roundOver || !s.isActivePlayer(userID) {
		s.mu.Unlock()
		return
	}

	if _, seen := s.roundResults[userID]; !seen {
		s.finishedPlayers = append(s.finishedPlayers, userID)
	}
	s.roundResults[userID] = &RoundResult{Score: score, Arrival: s.clock.Now(), Finished: true}

	finished := len(s.finishedPlayers)
	logger.Infof("[Session %s] player %d finished, score=%.0f, rank %d/%d (mode=%s)",
		s.Code, userID, score, finished, len(s.activePlayers), s.mode)

	var done bool
	switch s.mode {
	case games.ModeRace:
		done = finished >= s.slots
	case games.ModeTimed:
		// Everyone submitted; no need to wait out the clock
		done = finished >= len(s.activePlayers)
	}
	s.mu.Unlock()

	if done {
		go s.completeRound()
	}
}

// HandleAction relays a gameplay action to the active mini-game and
// returns its outcome. Scores reported here are informational; the ranking
// uses the ROUND_COMPLETE score.
func (s *GameSession) HandleAction(userID uint, action games.Action) (games.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive || s.game == nil || !s.isActivePlayer(userID) {
		return games.Outcome{}, false
	}
	return s.game.ProcessAction(userID, action), true
}

func (s *GameSession) onRoundTimerExpired(round int) {
	logger.Infof("[Session %s] round %d timer expired, %s grace for final scores",
		s.Code, round, s.timings.Grace)
	s.clock.Sleep(s.timings.Grace)

	s.mu.Lock()
	stale := s.currentRound != round || s.roundOver || s.state != StateActive
	s.mu.Unlock()
	if stale {
		return
	}
	s.completeRound()
}

// completeRound is the single exit from ROUND_ACTIVE. It is safe to reach
// from multiple triggers (quota, all-submitted, timer); the first one wins.
func (s *GameSession) completeRound() {
	s.mu.Lock()
	if s.state != StateActive || s.roundOver {
		s.mu.Unlock()
		return
	}
	s.roundOver = true
	s.state = StateResults
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
	if s.syncTimer != nil {
		s.syncTimer.Cancel()
		s.syncTimer = nil
	}

	logger.Infof("[Session %s] round %d complete", s.Code, s.currentRound)
	eliminatedIDs := s.calculateAndBroadcastResults()
	s.mu.Unlock()

	if s.store != nil && len(eliminatedIDs) > 0 {
		if err := s.store.MarkEliminated(s.Code, eliminatedIDs); err != nil {
			logger.Errorf("[Session %s] failed to persist eliminations: %v", s.Code, err)
		}
	}

	// Let clients show the results screen
	s.clock.Sleep(s.timings.ResultsPause)

	s.mu.Lock()
	roundsRemain := s.currentRound < s.totalRounds
	hasPlayers := len(s.activePlayers) > 1 || (len(s.activePlayers) > 0 && s.isTestMode)

	if roundsRemain && hasPlayers {
		s.state = StateIntermission
		s.hub.Broadcast(s.Code, IntermissionMessage{
			Type:           MsgIntermission,
			RoundCompleted: s.currentRound,
			NextRound:      s.currentRound + 1,
			ActivePlayers:  len(s.activePlayers),
			Message:        fmt.Sprintf("Round %d Complete! Preparing next round...", s.currentRound),
		})
		s.mu.Unlock()

		s.clock.Sleep(s.timings.IntermissionPause)

		s.mu.Lock()
		s.currentRound++
		s.state = StatePendingSync
		s.mu.Unlock()

		s.startRound()
		return
	}
	s.mu.Unlock()

	s.endSession()
}

// calculateAndBroadcastResults ranks the round, broadcasts a per-player
// verdict, and applies the elimination cut. Caller holds mu. Returns the
// user ids eliminated this round.
func (s *GameSession) calculateAndBroadcastResults() []uint {
	// A solo session skips elimination; the lone player just qualifies
	if len(s.activePlayers) <= 1 {
		for _, p := range s.activePlayers {
			var score float64
			if res, ok := s.roundResults[p.UserID]; ok {
				score = res.Score
			}
			s.hub.Broadcast(s.Code, RoundResultMessage{
				Type:            MsgRoundResult,
				Status:          "qualified",
				Rank:            1,
				Score:           score,
				TotalPlayers:    1,
				QualifiersCount: 1,
				Message:         "You qualified!",
				UserID:          p.UserID,
			})
		}
		return nil
	}

	ranked, qualifiers := computeRankings(s.activePlayers, s.roundResults, s.slots)

	for i, r := range ranked {
		rank := i + 1
		status, msg := "eliminated", fmt.Sprintf("You were eliminated (Rank #%d)", rank)
		if i < qualifiers {
			status, msg = "qualified", fmt.Sprintf("You qualified! (Rank #%d)", rank)
		}
		s.hub.Broadcast(s.Code, RoundResultMessage{
			Type:            MsgRoundResult,
			Status:          status,
			Rank:            rank,
			Score:           r.Score,
			TotalPlayers:    len(ranked),
			QualifiersCount: qualifiers,
			Message:         msg,
			UserID:          r.Player.UserID,
		})
	}

	var eliminatedIDs []uint
	if qualifiers < len(ranked) {
		survivors := make([]PlayerState, 0, qualifiers)
		for _, r := range ranked[:qualifiers] {
			survivors = append(survivors, r.Player)
		}
		for _, r := range ranked[qualifiers:] {
			s.eliminatedPlayers = append(s.eliminatedPlayers, r.Player)
			eliminatedIDs = append(eliminatedIDs, r.Player.UserID)
		}
		s.activePlayers = survivors
		logger.Infof("[Session %s] eliminated %d players, %d remaining",
			s.Code, len(eliminatedIDs), len(s.activePlayers))
	}
	return eliminatedIDs
}

func (s *GameSession) endSession() {
	s.mu.Lock()
	s.state = StateEnded

	var winner *PlayerState
	if len(s.activePlayers) > 0 {
		w := s.activePlayers[0]
		winner = &w
	}
	rankings := make([]PlayerState, 0, len(s.activePlayers)+len(s.eliminatedPlayers))
	rankings = append(rankings, s.activePlayers...)
	rankings = append(rankings, s.eliminatedPlayers...)

	s.hub.Broadcast(s.Code, SessionEndMessage{
		Type:          MsgGameSessionEnd,
		Winner:        winner,
		FinalRankings: rankings,
		Message:       "Game Over! Returning to lobby...",
	})
	s.mu.Unlock()

	logger.Infof("[Session %s] match over", s.Code)

	if s.store != nil {
		if err := s.store.SaveFinalRankings(s.Code, rankings); err != nil {
			logger.Errorf("[Session %s] failed to persist final rankings: %v", s.Code, err)
		}
	}

	s.clock.Sleep(s.timings.EndPause)
	s.hub.Broadcast(s.Code, RedirectMessage{Type: MsgRedirectToLobby})

	if s.onEnd != nil {
		s.onEnd()
	}
}

func (s *GameSession) isActivePlayer(userID uint) bool {
	for _, p := range s.activePlayers {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// State reports the current machine state.
func (s *GameSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func gamePlayers(players []PlayerState) []games.Player {
	out := make([]games.Player, len(players))
	for i, p := range players {
		out[i] = games.Player{UserID: p.UserID}
	}
	return out
}

// slotsForRound computes how many players survive a round that starts with
// active players. Intermediate rounds target 75% (round 1) or 50% of the
// field, with a floor of 2 qualifiers when more than 2 remain; the final
// round is winner-takes-all. Slots never reach the full field when more
// than one player is in it, so every round eliminates someone.
func slotsForRound(active, round, totalRounds int) int {
	if round >= totalRounds {
		return 1
	}

	var raw int
	if round == 1 {
		raw = active * 3 / 4
	} else {
		raw = active / 2
	}

	slots := raw
	if active > 2 {
		if slots < 2 {
			slots = 2
		}
	} else if slots < 1 {
		slots = 1
	}

	if slots >= active && active > 1 {
		slots = active - 1
	}
	if slots < 1 {
		slots = 1
	}
	return slots
}

type rankedResult struct {
	Player    PlayerState
	Score     float64
	Arrival   time.Time
	Submitted bool
}

// computeRankings produces the round's total order: submitters sorted by
// score descending then arrival ascending, followed by non-submitters in
// roster order. qualifiers is how many entries from the front survive the
// cut, capped at the submission count but floored at 1 so a round where
// nobody submits still leaves one survivor.
func computeRankings(active []PlayerState, results map[uint]*RoundResult, slots int) (ranked []rankedResult, qualifiers int) {
	var submitted, missing []rankedResult
	for _, p := range active {
		if res, ok := results[p.UserID]; ok {
			submitted = append(submitted, rankedResult{Player: p, Score: res.Score, Arrival: res.Arrival, Submitted: true})
		} else {
			missing = append(missing, rankedResult{Player: p})
		}
	}

	sort.SliceStable(submitted, func(i, j int) bool {
		if submitted[i].Score != submitted[j].Score {
			return submitted[i].Score > submitted[j].Score
		}
		return submitted[i].Arrival.Before(submitted[j].Arrival)
	})

	qualifiers = slots
	if len(submitted) < qualifiers {
		qualifiers = len(submitted)
	}
	if qualifiers < 1 {
		qualifiers = 1
	}
	return append(submitted, missing...), qualifiers
}
