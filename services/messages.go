package services

import "github.com/MakuD3v/Edu-Party-Mayhem/games"

// PlayerState is a live roster entry for one lobby member.
type PlayerState struct {
	UserID  uint   `json:"user_id"`
	Name    string `json:"name"`
	IsReady bool   `json:"is_ready"`
	IsHost  bool   `json:"is_host"`
	Icon    string `json:"icon"`
}

// ClientMessage is the envelope for everything a client sends over the
// socket. Fields beyond Type are only meaningful for specific types.
type ClientMessage struct {
	Type      string        `json:"type"`
	IsReady   *bool         `json:"is_ready,omitempty"`   // PLAYER_READY
	ForceTest bool          `json:"force_test,omitempty"` // START_GAME
	Score     float64       `json:"score,omitempty"`      // ROUND_COMPLETE
	Action    *games.Action `json:"action,omitempty"`     // GAME_ACTION
}

// Client -> server message types.
const (
	MsgPlayerReady         = "PLAYER_READY"
	MsgStartGame           = "START_GAME"
	MsgPlayerReadyForRound = "PLAYER_READY_FOR_ROUND"
	MsgRoundComplete       = "ROUND_COMPLETE"
	MsgGameAction          = "GAME_ACTION"
	MsgGetGameState        = "GET_GAME_STATE"
	MsgGetPlayers          = "GET_PLAYERS"
)

type PlayerListMessage struct {
	Type    string        `json:"type"`
	Players []PlayerState `json:"players"`
}

type GameStartMessage struct {
	Type        string `json:"type"`
	SessionCode string `json:"session_code"`
	Message     string `json:"message,omitempty"`
}

// RoundStartMessage carries the round metadata plus the mini-game config;
// the embedded Config flattens into the same JSON object.
type RoundStartMessage struct {
	Type            string `json:"type"`
	Round           int    `json:"round"`
	TotalRounds     int    `json:"total_rounds"`
	ActivePlayers   int    `json:"active_players"`
	EliminatedCount int    `json:"eliminated_count"`
	IsTestMode      bool   `json:"is_test_mode"`
	SlotsAvailable  int    `json:"slots_available"`
	IsSynced        bool   `json:"is_synced"`
	games.Config
}

type AllPlayersReadyMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type RoundResultMessage struct {
	Type            string  `json:"type"`
	Status          string  `json:"status"` // qualified | eliminated
	Rank            int     `json:"rank"`
	Score           float64 `json:"score"`
	TotalPlayers    int     `json:"total_players"`
	QualifiersCount int     `json:"qualifiers_count"`
	Message         string  `json:"message"`
	UserID          uint    `json:"user_id"` // so each client knows who this is for
}

type ActionResultMessage struct {
	Type string `json:"type"`
	games.Outcome
}

type IntermissionMessage struct {
	Type           string `json:"type"`
	RoundCompleted int    `json:"round_completed"`
	NextRound      int    `json:"next_round"`
	ActivePlayers  int    `json:"active_players"`
	Message        string `json:"message"`
}

type SessionEndMessage struct {
	Type          string        `json:"type"`
	Winner        *PlayerState  `json:"winner"`
	FinalRankings []PlayerState `json:"final_rankings"`
	Message       string        `json:"message"`
}

type RedirectMessage struct {
	Type string `json:"type"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Server -> client message types.
const (
	MsgPlayerListUpdate = "PLAYER_LIST_UPDATE"
	MsgGameStart        = "GAME_START"
	MsgRoundStart       = "ROUND_START"
	MsgAllPlayersReady  = "ALL_PLAYERS_READY"
	MsgRoundResult      = "ROUND_RESULT"
	MsgGameActionResult = "GAME_ACTION_RESULT"
	MsgIntermission     = "INTERMISSION"
	MsgGameSessionEnd   = "GAME_SESSION_END"
	MsgRedirectToLobby  = "REDIRECT_TO_LOBBY"
	MsgError            = "ERROR"
)
