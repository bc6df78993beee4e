package games

import (
	"math/rand"
	"strings"
	"time"
)

type FixSyntax struct {
	puzzles []Question
	scores  map[uint]int
	rng     *rand.Rand
}

func NewFixSyntax() MiniGame {
	return &FixSyntax{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *FixSyntax) Name() string { return "Fix The Syntax" }

func (g *FixSyntax) Start(players []Player) Config {
	pool := []Question{
		{Code: "print('Hello ' + ____)", Answer: "world", Hint: "Typical greeting"},
		{Code: "if x ____ 10:\n  print('Ten')", Answer: "==", Hint: "Equality operator"},
		{Code: "def my_func(___):\n  return x", Answer: "x", Hint: "Function argument"},
		{Code: "lst = [1, 2, 3]\nprint(lst[___])", Answer: "0", Hint: "First index"},
		{Code: "import ____ as pd", Answer: "pandas", Hint: "Data Science Lib"},
		{Code: "for i in ____(5):", Answer: "range", Hint: "Loop sequence generator"},
		{Code: "dict = {'key': ____}", Answer: "value", Hint: "Key-Pair"},
	}

	g.puzzles = g.puzzles[:0]
	for i := 0; i < 3; i++ {
		g.rng.Shuffle(len(pool), func(a, b int) { pool[a], pool[b] = pool[b], pool[a] })
		g.puzzles = append(g.puzzles, pool...)
	}
	g.scores = initialScores(players)

	return Config{
		GameType:  "fix_syntax",
		GameTitle: "FIX THE SYNTAX",
		GameIcon:  "🔧",
		Mode:      ModeTimed,
		TimeLimit: 30,
		Tutorial: &Tutorial{
			Text:  "Fill in the missing code!",
			Rules: []string{"30 Second Timer", "Type the missing part", "Exact match required"},
		},
		Questions: g.puzzles,
	}
}

func (g *FixSyntax) ProcessAction(playerID uint, action Action) Outcome {
	if action.QuestionIndex >= 0 && action.QuestionIndex < len(g.puzzles) {
		if strings.TrimSpace(action.Answer) == g.puzzles[action.QuestionIndex].Answer {
			g.scores[playerID]++
			return Outcome{Result: "correct", Score: g.scores[playerID]}
		}
	}
	return Outcome{Result: "incorrect", Score: g.scores[playerID]}
}

func (g *FixSyntax) End() map[uint]int { return g.scores }
