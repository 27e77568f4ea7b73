package app

import (
	"biblequest/internal/progress"
	"biblequest/internal/puzzle"
)

// Status is the read model shown by the CLI and the dev endpoint.
type Status struct {
	PlayerName      string  `json:"playerName"`
	Coins           int64   `json:"coins"`
	CurrentLevel    int     `json:"currentLevel"`
	LevelCount      int     `json:"levelCount"`
	LevelTitle      string  `json:"levelTitle"`
	Revealed        int     `json:"revealed"`
	LevelSize       int     `json:"levelSize"`
	Progress        float64 `json:"progress"`
	LevelComplete   bool    `json:"levelComplete"`
	CompletedLevels []int   `json:"completedLevels"`
	StageComplete   bool    `json:"stageComplete"`
	BooksFound      int     `json:"booksFound"`
	TotalBooks      int     `json:"totalBooks"`
}

// BookView is one book as the player currently sees it.
type BookView struct {
	Index        int         `json:"index"`
	Book         puzzle.Book `json:"book"`
	Revealed     bool        `json:"revealed"`
	Interactions int         `json:"interactions"`
}

// TapResult is a tap plus what the presentation layer did about it.
type TapResult struct {
	progress.Interaction
	Cues          []string `json:"cues"`
	StageComplete bool     `json:"stageComplete"`
}

// LevelMove reports a navigation request.
type LevelMove struct {
	Moved    bool `json:"moved"`
	Level    int  `json:"level"`
	Finished bool `json:"finished"`
}

// BookLocation places a book in the level grid.
type BookLocation struct {
	Book     puzzle.Book `json:"book"`
	Level    int         `json:"level"`
	Index    int         `json:"index"`
	Revealed bool        `json:"revealed"`
}
