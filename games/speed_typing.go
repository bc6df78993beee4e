package games

import (
	"math/rand"
	"time"
)

var typingWords = []string{
	"python", "java", "coding", "fastapi", "education", "party", "mayhem",
	"keyboard", "screen", "mouse", "algorithm", "database", "network",
	"server", "client", "socket", "router", "switch", "binary", "pixel",
}

type SpeedTyping struct {
	wordList []string
	scores   map[uint]int
	rng      *rand.Rand
}

func NewSpeedTyping() MiniGame {
	return &SpeedTyping{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *SpeedTyping) Name() string { return "Speed Typing" }

func (g *SpeedTyping) Start(players []Player) Config {
	// Long random stream of words for the client to scroll through
	g.wordList = make([]string, 50)
	for i := range g.wordList {
		g.wordList[i] = typingWords[g.rng.Intn(len(typingWords))]
	}
	g.scores = initialScores(players)

	return Config{
		GameType:  "speed_typing",
		GameTitle: "SPEED TYPING",
		GameIcon:  "⌨️",
		Mode:      ModeTimed,
		TimeLimit: 20,
		Tutorial: &Tutorial{
			Text:  "Type the words as fast as you can!",
			Rules: []string{"20 Second Time Limit", "Type exactly what you see", "Speed is key!"},
		},
		WordList: g.wordList,
	}
}

func (g *SpeedTyping) ProcessAction(playerID uint, action Action) Outcome {
	if action.WordIndex >= 0 && action.WordIndex < len(g.wordList) {
		if action.Word == g.wordList[action.WordIndex] {
			g.scores[playerID]++
			return Outcome{Result: "correct", Score: g.scores[playerID]}
		}
	}
	return Outcome{Result: "incorrect", Score: g.scores[playerID]}
}

func (g *SpeedTyping) End() map[uint]int { return g.scores }
