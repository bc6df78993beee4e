package games

import (
	"math/rand"
	"time"
)

const techSprintTarget = 10

type TechSprint struct {
	questions []Question
	scores    map[uint]int // player progress toward the target
	rng       *rand.Rand
}

func NewTechSprint() MiniGame {
	return &TechSprint{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *TechSprint) Name() string { return "Tech Sprint" }

func (g *TechSprint) Start(players []Player) Config {
	pool := []Question{
		{Text: "Which isn't a programming language?", Options: []string{"Java", "Python", "HTML", "C++"}, Answer: "HTML"},
		{Text: "What does CPU stand for?", Options: []string{"Central Processing Unit", "Computer Personal Unit", "Central Process Utility", "Core Processing Unit"}, Answer: "Central Processing Unit"},
		{Text: "RAM is...", Options: []string{"Permanent Storage", "Volatile Memory", "Read Access Mode", "Remote Access Memory"}, Answer: "Volatile Memory"},
		{Text: "Short for Binary Digit", Options: []string{"Bid", "Bit", "Byte", "Bin"}, Answer: "Bit"},
		{Text: "Protocol for web browsing", Options: []string{"FTP", "SMTP", "HTTP", "SSH"}, Answer: "HTTP"},
		{Text: "Language for database queries", Options: []string{"SQL", "NoSQL", "DBL", "Query++"}, Answer: "SQL"},
		{Text: "Primary color of the Python logo", Options: []string{"Red/Green", "Blue/Yellow", "Black/White", "Purple/Orange"}, Answer: "Blue/Yellow"},
		{Text: "Which is a loop?", Options: []string{"if", "for", "def", "class"}, Answer: "for"},
	}

	// Repeat the shuffled pool so the race never runs out of questions
	g.questions = g.questions[:0]
	for i := 0; i < 5; i++ {
		g.rng.Shuffle(len(pool), func(a, b int) { pool[a], pool[b] = pool[b], pool[a] })
		g.questions = append(g.questions, pool...)
	}
	g.scores = initialScores(players)

	return Config{
		GameType:  "tech_sprint",
		GameTitle: "TECH SPRINT",
		GameIcon:  "🚀",
		Mode:      ModeRace,
		WinScore:  techSprintTarget,
		Tutorial: &Tutorial{
			Text:  "Race to the finish line!",
			Rules: []string{"Correct = Move +1", "Wrong = Move -1", "First to 10 wins!"},
		},
		Questions: g.questions,
	}
}

func (g *TechSprint) ProcessAction(playerID uint, action Action) Outcome {
	progress := g.scores[playerID]

	if action.QuestionIndex < 0 || action.QuestionIndex >= len(g.questions) {
		return Outcome{Result: "ok", Score: progress}
	}

	if action.Answer == g.questions[action.QuestionIndex].Answer {
		if progress < techSprintTarget {
			progress++
		}
		g.scores[playerID] = progress
		return Outcome{Result: "correct", Score: progress, Win: progress >= techSprintTarget}
	}

	if progress > 0 {
		progress--
	}
	g.scores[playerID] = progress
	return Outcome{Result: "incorrect", Score: progress}
}

func (g *TechSprint) End() map[uint]int { return g.scores }
