package games

import "math/rand"

type Mode string

const (
	ModeTimed Mode = "timed" // rank by score, submission time breaks ties
	ModeRace  Mode = "race"  // first N to reach win_score qualify
)

// Player is the minimal identity a game needs to track scores.
type Player struct {
	UserID uint
}

type Tutorial struct {
	Text  string   `json:"text"`
	Rules []string `json:"rules"`
}

// Question covers every content shape the games use: multiple choice,
// true/false statements, and fill-in-the-blank code puzzles.
type Question struct {
	Text    string   `json:"text,omitempty"`
	Options []string `json:"options,omitempty"`
	Answer  string   `json:"answer,omitempty"`
	Code    string   `json:"code,omitempty"`
	Hint    string   `json:"hint,omitempty"`
}

// Config is the start payload a game hands back. Its fields are flattened
// into the ROUND_START message.
type Config struct {
	GameType  string     `json:"game_type,omitempty"`
	GameTitle string     `json:"game_title,omitempty"`
	GameIcon  string     `json:"game_icon,omitempty"`
	Mode      Mode       `json:"mode,omitempty"`
	TimeLimit int        `json:"time_limit,omitempty"` // seconds, timed games
	WinScore  int        `json:"win_score,omitempty"`  // target, race games
	Tutorial  *Tutorial  `json:"tutorial,omitempty"`
	Questions []Question `json:"questions,omitempty"`
	WordList  []string   `json:"word_list,omitempty"`
}

type Action struct {
	QuestionIndex int    `json:"question_index"`
	WordIndex     int    `json:"word_index"`
	Answer        string `json:"answer"`
	Word          string `json:"word"`
}

type Outcome struct {
	Result string `json:"result"` // correct | incorrect
	Score  int    `json:"score"`
	Win    bool   `json:"win,omitempty"`
}

// MiniGame is the capability contract the session engine consumes. The
// engine never inspects game content; it only starts the game, relays
// actions, and collects scores.
type MiniGame interface {
	Name() string
	Start(players []Player) Config
	ProcessAction(playerID uint, action Action) Outcome
	End() map[uint]int
}

type Factory func() MiniGame

// Registry lists every playable game. Selection cycles through it without
// repeats until all games have been played.
var Registry = []Factory{
	NewMathQuiz,
	NewSpeedTyping,
	NewTechSprint,
	NewTrueFalse,
	NewFixSyntax,
}

// Pick selects a random game whose name is not in played. When every game
// has been played the cycle restarts; reset reports that the caller should
// clear its history.
func Pick(rng *rand.Rand, played []string) (game MiniGame, reset bool) {
	seen := make(map[string]bool, len(played))
	for _, name := range played {
		seen[name] = true
	}

	var available []Factory
	for _, f := range Registry {
		if !seen[f().Name()] {
			available = append(available, f)
		}
	}
	if len(available) == 0 {
		available = Registry
		reset = true
	}
	return available[rng.Intn(len(available))](), reset
}

func initialScores(players []Player) map[uint]int {
	scores := make(map[uint]int, len(players))
	for _, p := range players {
		scores[p.UserID] = 0
	}
	return scores
}
