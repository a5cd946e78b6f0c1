package domain

import "time"

// Point is a grid cell encoded as a two element array, [x, y].
type Point [2]int

func (p Point) X() int { return p[0] }
func (p Point) Y() int { return p[1] }

// Color is an RGB triple.
type Color [3]int

// Participant is one joined client and its ephemeral state.
type Participant struct {
	ID       string
	Name     string
	Position Point
	Color    Color
}

// LevelType discriminates the entries of a level sequence.
type LevelType string

const (
	LevelFormation LevelType = "FORMATION"
	LevelQuiz      LevelType = "QUIZ"
)

const (
	DefaultTimeLimit   = 60
	DefaultTargetScore = 10
)

// Question is a multiple choice record. The short keys match the catalog files clients were built for.
type Question struct {
	Prompt  string   `json:"q" yaml:"q"`
	Options []string `json:"o" yaml:"o"`
	Answer  int      `json:"a" yaml:"a"`
}

// LevelConfig describes one entry of the level sequence.
type LevelConfig struct {
	ID          string     `json:"id" yaml:"id"`
	Type        LevelType  `json:"type" yaml:"type"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	TimeLimit   int        `json:"time_limit,omitempty" yaml:"time_limit,omitempty"` // seconds, defaults to 60
	ShapeKey    string     `json:"shape_key,omitempty" yaml:"shape_key,omitempty"`
	Pool        []Question `json:"pool,omitempty" yaml:"pool,omitempty"`
	TargetScore int        `json:"target_score,omitempty" yaml:"target_score,omitempty"` // defaults to 10
}

// Limit returns the configured time limit. A missing or zero time_limit both
// select the 60s default.
func (c LevelConfig) Limit() time.Duration {
	if c.TimeLimit <= 0 {
		return DefaultTimeLimit * time.Second
	}
	return time.Duration(c.TimeLimit) * time.Second
}

// Target returns the quiz score threshold, applying the default.
func (c LevelConfig) Target() int {
	if c.TargetScore <= 0 {
		return DefaultTargetScore
	}
	return c.TargetScore
}

// Catalog is the ordered level sequence plus the shape library used by formation levels.
type Catalog struct {
	ID            string             `json:"id" yaml:"id"`
	LevelSequence []LevelConfig      `json:"level_sequence" yaml:"level_sequence"`
	Shapes        map[string][]Point `json:"shapes" yaml:"shapes"`
}

// SessionStatus is a read-only view of the coordinator for operators.
type SessionStatus struct {
	Started      bool      `json:"started"`
	LevelIndex   int       `json:"levelIndex"`
	LevelID      string    `json:"levelId,omitempty"`
	LevelTitle   string    `json:"levelTitle,omitempty"`
	LevelType    LevelType `json:"levelType,omitempty"`
	Participants int       `json:"participants"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
