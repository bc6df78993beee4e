package games

import (
	"math/rand"
	"time"
)

const trueFalseTarget = 10

type TrueFalse struct {
	questions []Question
	scores    map[uint]int
	rng       *rand.Rand
}

func NewTrueFalse() MiniGame {
	return &TrueFalse{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *TrueFalse) Name() string { return "True or False" }

func (g *TrueFalse) Start(players []Player) Config {
	pool := []Question{
		{Text: "Python arrays are 1-indexed.", Answer: "False"},
		{Text: "HTML stands for HyperText Markup Language.", Answer: "True"},
		{Text: "A byte consists of 8 bits.", Answer: "True"},
		{Text: "Java and JavaScript are the same language.", Answer: "False"},
		{Text: "SQL is used for database management.", Answer: "True"},
		{Text: "Linux is an open-source OS.", Answer: "True"},
		{Text: "RAM stores data permanently.", Answer: "False"},
		{Text: "CSS is used for styling web pages.", Answer: "True"},
	}

	// Random draw with repeats, long enough to outlast any race
	g.questions = make([]Question, 30)
	for i := range g.questions {
		q := pool[g.rng.Intn(len(pool))]
		q.Options = []string{"True", "False"}
		g.questions[i] = q
	}
	g.scores = initialScores(players)

	return Config{
		GameType:  "true_false",
		GameTitle: "TRUE OR FALSE",
		GameIcon:  "✅",
		Mode:      ModeRace,
		WinScore:  trueFalseTarget,
		Tutorial: &Tutorial{
			Text:  "Decide if the statement is True or False.",
			Rules: []string{"Correct = +1 Point", "Wrong = 0 Points", "Answer 10 to win!"},
		},
		Questions: g.questions,
	}
}

func (g *TrueFalse) ProcessAction(playerID uint, action Action) Outcome {
	if action.QuestionIndex >= 0 && action.QuestionIndex < len(g.questions) {
		if action.Answer == g.questions[action.QuestionIndex].Answer {
			g.scores[playerID]++
			score := g.scores[playerID]
			return Outcome{Result: "correct", Score: score, Win: score >= trueFalseTarget}
		}
	}
	return Outcome{Result: "incorrect", Score: g.scores[playerID]}
}

func (g *TrueFalse) End() map[uint]int { return g.scores }
