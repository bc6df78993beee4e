package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/MakuD3v/Edu-Party-Mayhem/games"
)

// recorder captures broadcasts as decoded JSON objects so assertions can
// check the wire shape directly.
type recorder struct {
	mu   sync.Mutex
	msgs []map[string]any
}

func (r *recorder) Broadcast(code string, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recorder) ofType(t string) []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []map[string]any
	for _, m := range r.msgs {
		if m["type"] == t {
			out = append(out, m)
		}
	}
	return out
}

func testPlayers(n int) []PlayerState {
	players := make([]PlayerState, n)
	for i := range players {
		players[i] = PlayerState{UserID: uint(i + 1), Name: "p", IsHost: i == 0}
	}
	return players
}

func newTestSession(players []PlayerState, rec *recorder) *GameSession {
	return NewGameSession("TEST01", players, false, SessionDeps{Hub: rec, Timings: Timings{}})
}

// ---------------------------------------------------------------------
// Slot allocation policy
// ---------------------------------------------------------------------

func TestSlotsForRound(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		active, round, want int
	}{
		{4, 1, 3},  // round 1 targets 75%
		{8, 1, 6},
		{3, 1, 2},
		{2, 1, 1},  // 2 players must still eliminate one
		{10, 2, 5}, // later rounds target 50%
		{3, 2, 2},  // floor of 2 when more than 2 remain
		{5, 2, 2},
		{2, 2, 1},
		{4, 3, 1}, // final round is winner-takes-all
		{2, 3, 1},
		{1, 1, 1}, // solo never goes below 1
	}
	for _, c := range cases {
		assert.Equal(c.want, slotsForRound(c.active, c.round, TotalRounds),
			"active=%d round=%d", c.active, c.round)
	}
}

func TestSlotsForRound_AlwaysEliminates(t *testing.T) {
	assert := assert.New(t)

	for active := 2; active <= 20; active++ {
		for round := 1; round < TotalRounds; round++ {
			slots := slotsForRound(active, round, TotalRounds)
			assert.GreaterOrEqual(slots, 1, "active=%d round=%d", active, round)
			assert.Less(slots, active, "active=%d round=%d", active, round)
		}
		assert.Equal(1, slotsForRound(active, TotalRounds, TotalRounds))
	}
}

// ---------------------------------------------------------------------
// Ranking / elimination
// ---------------------------------------------------------------------

func TestComputeRankings_ScoreThenArrival(t *testing.T) {
	assert := assert.New(t)

	players := testPlayers(4)
	base := time.Now()
	results := map[uint]*RoundResult{
		1: {Score: 8, Arrival: base.Add(30 * time.Millisecond), Finished: true},  // tied score, later
		2: {Score: 10, Arrival: base.Add(10 * time.Millisecond), Finished: true}, // top score
		3: {Score: 8, Arrival: base.Add(20 * time.Millisecond), Finished: true},  // tied score, earlier
		// player 4 never submitted
	}

	ranked, qualifiers := computeRankings(players, results, 3)

	assert.Equal(3, qualifiers)
	assert.Len(ranked, 4)
	assert.Equal(uint(2), ranked[0].Player.UserID)
	assert.Equal(uint(3), ranked[1].Player.UserID) // earlier arrival wins the tie
	assert.Equal(uint(1), ranked[2].Player.UserID)
	assert.Equal(uint(4), ranked[3].Player.UserID) // non-submitter last
	assert.False(ranked[3].Submitted)
}

func TestComputeRankings_NonSubmittersNeverQualify(t *testing.T) {
	assert := assert.New(t)

	players := testPlayers(4)
	results := map[uint]*RoundResult{
		1: {Score: 5, Arrival: time.Now(), Finished: true},
	}

	ranked, qualifiers := computeRankings(players, results, 3)

	// Slots exceed submissions: only the lone submitter qualifies
	assert.Equal(1, qualifiers)
	assert.Equal(uint(1), ranked[0].Player.UserID)
}

func TestComputeRankings_IdenticalScoresNeverTie(t *testing.T) {
	assert := assert.New(t)

	players := testPlayers(2)
	base := time.Now()
	results := map[uint]*RoundResult{
		1: {Score: 7, Arrival: base.Add(2 * time.Millisecond), Finished: true},
		2: {Score: 7, Arrival: base.Add(1 * time.Millisecond), Finished: true},
	}

	ranked, _ := computeRankings(players, results, 1)
	assert.Equal(uint(2), ranked[0].Player.UserID)
	assert.Equal(uint(1), ranked[1].Player.UserID)
}

// ---------------------------------------------------------------------
// Round completion
// ---------------------------------------------------------------------

func TestRaceMode_QuotaEndsRound(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	s := newTestSession(testPlayers(3), rec)
	s.state = StateActive
	s.mode = games.ModeRace
	s.slots = 2

	s.HandlePlayerFinish(1, 10)
	assert.Empty(rec.ofType(MsgRoundResult), "round should still be open after first finisher")

	s.HandlePlayerFinish(2, 10)

	assert.Eventually(func() bool {
		return len(rec.ofType(MsgRoundResult)) == 3
	}, 2*time.Second, 10*time.Millisecond)

	for _, m := range rec.ofType(MsgRoundResult) {
		switch uint(m["user_id"].(float64)) {
		case 1, 2:
			assert.Equal("qualified", m["status"])
		case 3:
			assert.Equal("eliminated", m["status"])
		}
	}
}

func TestTimedMode_AllSubmittedEndsRound(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	s := newTestSession(testPlayers(2), rec)
	s.state = StateActive
	s.mode = games.ModeTimed
	s.slots = 1

	s.HandlePlayerFinish(1, 5)
	s.HandlePlayerFinish(2, 9)

	// One survivor left, so the match runs straight to its end
	assert.Eventually(func() bool {
		return len(rec.ofType(MsgGameSessionEnd)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	end := rec.ofType(MsgGameSessionEnd)[0]
	winner := end["winner"].(map[string]any)
	assert.Equal(float64(2), winner["user_id"])

	rankings := end["final_rankings"].([]any)
	assert.Len(rankings, 2)
	assert.Equal(float64(2), rankings[0].(map[string]any)["user_id"])
	assert.Equal(float64(1), rankings[1].(map[string]any)["user_id"])
}

func TestDuplicateFinish_CountsOnce(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	s := newTestSession(testPlayers(3), rec)
	s.state = StateActive
	s.mode = games.ModeRace
	s.slots = 2

	s.HandlePlayerFinish(1, 10)
	s.HandlePlayerFinish(1, 12) // resubmission updates the score only

	s.mu.Lock()
	finished := len(s.finishedPlayers)
	score := s.roundResults[1].Score
	s.mu.Unlock()

	assert.Equal(1, finished)
	assert.Equal(float64(12), score)
	assert.Empty(rec.ofType(MsgRoundResult))
}

func TestSoloSession_SkipsElimination(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	s := NewGameSession("TEST01", testPlayers(1), true, SessionDeps{Hub: rec, Timings: Timings{}})
	s.state = StateActive
	s.mode = games.ModeTimed
	s.slots = 1

	s.HandlePlayerFinish(1, 4)

	assert.Eventually(func() bool {
		return len(rec.ofType(MsgRoundResult)) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	m := rec.ofType(MsgRoundResult)[0]
	assert.Equal("qualified", m["status"])
	assert.Equal(float64(1), m["rank"])

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(s.eliminatedPlayers)
}

func TestTimerExpiry_ForceCompletesWithNonSubmittersEliminated(t *testing.T) {
	assert := assert.New(t)

	fc := clockwork.NewFakeClock()
	rec := &recorder{}
	s := NewGameSession("TEST01", testPlayers(2), false, SessionDeps{
		Hub:     rec,
		Clock:   fc,
		Timings: Timings{Grace: 2 * time.Second},
	})
	s.state = StateActive
	s.mode = games.ModeTimed
	s.slots = 1
	s.timer = StartRoundTimer(fc, 35*time.Second, func() { s.onRoundTimerExpired(1) })

	s.HandlePlayerFinish(1, 7)

	fc.BlockUntil(1)
	fc.Advance(35 * time.Second) // expiry
	fc.BlockUntil(1)
	fc.Advance(2 * time.Second) // grace for stragglers

	assert.Eventually(func() bool {
		return len(rec.ofType(MsgRoundResult)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	for _, m := range rec.ofType(MsgRoundResult) {
		switch uint(m["user_id"].(float64)) {
		case 1:
			assert.Equal("qualified", m["status"])
		case 2:
			assert.Equal("eliminated", m["status"])
		}
	}
}

// ---------------------------------------------------------------------
// Readiness barrier
// ---------------------------------------------------------------------

func TestReadinessBarrier_SyncsOnlyWhenAllAcked(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	s := newTestSession(testPlayers(3), rec)
	s.state = StateActive
	s.expectedPlayers = 3

	s.MarkPlayerReady(1)
	s.MarkPlayerReady(2)
	s.MarkPlayerReady(2) // duplicate ack
	s.MarkPlayerReady(99) // not an expected player
	assert.Empty(rec.ofType(MsgAllPlayersReady))

	s.MarkPlayerReady(3)
	assert.Len(rec.ofType(MsgAllPlayersReady), 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.True(s.synced)
}

func TestReadinessBarrier_TimesOutAndProceeds(t *testing.T) {
	assert := assert.New(t)

	fc := clockwork.NewFakeClock()
	rec := &recorder{}
	s := NewGameSession("TEST01", testPlayers(2), false, SessionDeps{Hub: rec, Clock: fc, Timings: Timings{ReadySync: 30 * time.Second}})
	s.state = StateActive
	s.expectedPlayers = 2
	s.syncTimer = StartRoundTimer(fc, 30*time.Second, s.forceRoundSync)

	s.MarkPlayerReady(1) // the other player hangs

	fc.BlockUntil(1)
	fc.Advance(30 * time.Second)

	assert.Eventually(func() bool {
		return len(rec.ofType(MsgAllPlayersReady)) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// ---------------------------------------------------------------------
// Full round via startRound
// ---------------------------------------------------------------------

func TestStartRound_BroadcastsConfigAndResetsState(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	s := newTestSession(testPlayers(4), rec)

	s.startRound()

	starts := rec.ofType(MsgRoundStart)
	assert.Len(starts, 1)
	m := starts[0]
	assert.Equal(float64(1), m["round"])
	assert.Equal(float64(TotalRounds), m["total_rounds"])
	assert.Equal(float64(4), m["active_players"])
	assert.Equal(float64(3), m["slots_available"]) // 75% of 4
	assert.Equal(false, m["is_synced"])
	assert.NotEmpty(m["game_type"])

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(StateActive, s.state)
	assert.NotNil(s.game)
	assert.Empty(s.roundResults)
	assert.Empty(s.finishedPlayers)
	assert.Len(s.gameHistory, 1)
	if s.mode == games.ModeTimed {
		assert.NotNil(s.timer)
	}
}

func TestEliminationIsMonotonic(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	s := newTestSession(testPlayers(4), rec)
	s.state = StateActive
	s.mode = games.ModeRace
	s.slots = 3

	s.HandlePlayerFinish(1, 1)
	s.HandlePlayerFinish(2, 1)
	s.HandlePlayerFinish(3, 1)

	assert.Eventually(func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.eliminatedPlayers) == 1 && len(s.activePlayers) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestComputeRankings_NoSubmissionsStillReportsOneQualifier(t *testing.T) {
	assert := assert.New(t)

	players := testPlayers(3)
	ranked, qualifiers := computeRankings(players, map[uint]*RoundResult{}, 2)

	assert.Equal(1, qualifiers)
	assert.Len(ranked, 3)
	// Roster order decides who survives a round nobody finished
	assert.Equal(uint(1), ranked[0].Player.UserID)
}

// ---------------------------------------------------------------------
// Late-joiner resync
// ---------------------------------------------------------------------

func TestAttachClient_BeforeFirstRoundOnlyRegisters(t *testing.T) {
	assert := assert.New(t)

	h := NewHub()
	s := NewGameSession("TEST01", testPlayers(2), false, SessionDeps{Hub: h, Timings: Timings{}})

	late := newHubClient(2, 32)
	s.AttachClient(h, late)

	assert.Equal(1, h.Count("TEST01"))
	assert.Empty(late.send, "no snapshot exists before the first round")
}

func TestAttachClient_SnapshotPrecedesLaterBroadcasts(t *testing.T) {
	assert := assert.New(t)

	h := NewHub()
	s := NewGameSession("TEST01", testPlayers(2), false, SessionDeps{Hub: h, Timings: Timings{}})
	s.startRound()

	late := newHubClient(2, 32)
	s.AttachClient(h, late)

	snapshot := receive(t, late)
	assert.Equal(MsgRoundStart, snapshot["type"])
	assert.Equal(float64(1), snapshot["round"])
	assert.Equal(false, snapshot["is_synced"])
	assert.Empty(late.send, "barrier has not released, nothing else may be queued")

	// The barrier release lands strictly after the snapshot
	s.MarkPlayerReady(1)
	s.MarkPlayerReady(2)
	assert.Equal(MsgAllPlayersReady, receive(t, late)["type"])
}

func TestAttachClient_SyncedRoundUnblocksImmediately(t *testing.T) {
	assert := assert.New(t)

	h := NewHub()
	s := NewGameSession("TEST01", testPlayers(2), false, SessionDeps{Hub: h, Timings: Timings{}})
	s.startRound()
	s.MarkPlayerReady(1)
	s.MarkPlayerReady(2)

	late := newHubClient(2, 32)
	s.AttachClient(h, late)

	snapshot := receive(t, late)
	assert.Equal(MsgRoundStart, snapshot["type"])
	assert.Equal(true, snapshot["is_synced"])
	assert.Equal(MsgAllPlayersReady, receive(t, late)["type"])
}
