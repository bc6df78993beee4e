package games

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

type MathQuiz struct {
	questions []Question
	scores    map[uint]int
	rng       *rand.Rand
}

func NewMathQuiz() MiniGame {
	return &MathQuiz{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *MathQuiz) Name() string { return "Math Quiz" }

func (g *MathQuiz) Start(players []Player) Config {
	// Generous pool so fast players never run out
	g.questions = make([]Question, 0, 50)
	for i := 0; i < 50; i++ {
		g.questions = append(g.questions, g.generateQuestion())
	}
	g.scores = initialScores(players)

	return Config{
		GameType:  "math_quiz",
		GameTitle: "MATH QUIZ",
		GameIcon:  "➗",
		Mode:      ModeTimed,
		TimeLimit: 20,
		Tutorial: &Tutorial{
			Text:  "Solve as many math problems as you can!",
			Rules: []string{"20 Second Time Limit", "Correct = +1 Point", "Wrong = -1 Point"},
		},
		Questions: g.questions,
	}
}

func (g *MathQuiz) ProcessAction(playerID uint, action Action) Outcome {
	if action.QuestionIndex < 0 || action.QuestionIndex >= len(g.questions) {
		return Outcome{Result: "incorrect", Score: g.scores[playerID]}
	}

	if action.Answer == g.questions[action.QuestionIndex].Answer {
		g.scores[playerID]++
		return Outcome{Result: "correct", Score: g.scores[playerID]}
	}

	// Wrong answers cost a point, floored at zero
	if g.scores[playerID] > 0 {
		g.scores[playerID]--
	}
	return Outcome{Result: "incorrect", Score: g.scores[playerID]}
}

func (g *MathQuiz) End() map[uint]int { return g.scores }

func (g *MathQuiz) generateQuestion() Question {
	a := g.rng.Intn(12) + 1
	b := g.rng.Intn(12) + 1
	op := []string{"+", "-", "*"}[g.rng.Intn(3)]

	var ans int
	switch op {
	case "+":
		ans = a + b
	case "-":
		ans = a - b
	default:
		ans = a * b
	}

	return Question{
		Text:   fmt.Sprintf("%d %s %d", a, op, b),
		Answer: strconv.Itoa(ans),
	}
}
