// Package level implements the timed activity units a session runs through.
//
// A Level is a closed set of variants (*Formation and *Quiz). Callers that need
// variant specific data switch on the concrete type.
package level

import (
	"fmt"
	"math/rand"
	"time"

	"classroom-levels-service/internal/domain"
)

// Level is one timed activity unit with its own win condition.
type Level interface {
	Config() domain.LevelConfig
	Type() domain.LevelType
	// Won reports whether the victory condition holds for the given participants.
	Won(players map[string]domain.Participant) bool
	// TimeLeft never returns a negative duration.
	TimeLeft(now time.Time) time.Duration
}

// New builds the level for cfg. participants is the joined count at level start.
func New(cfg domain.LevelConfig, shapes map[string][]domain.Point, participants int, rnd *rand.Rand, now time.Time) (Level, error) {
	switch cfg.Type {
	case domain.LevelFormation:
		return NewFormation(cfg, shapes[cfg.ShapeKey], participants, rnd, now), nil
	case domain.LevelQuiz:
		if len(cfg.Pool) == 0 {
			return nil, fmt.Errorf("level %q: %w: empty question pool", cfg.ID, domain.ErrInvalidCatalog)
		}
		return NewQuiz(cfg, rnd, now), nil
	default:
		return nil, fmt.Errorf("level %q: %w: %q", cfg.ID, domain.ErrUnknownLevelType, cfg.Type)
	}
}

// Seconds converts a remaining duration into the whole seconds shown to clients.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

type clock struct {
	cfg       domain.LevelConfig
	startedAt time.Time
}

func (c clock) Config() domain.LevelConfig { return c.cfg }

func (c clock) Type() domain.LevelType { return c.cfg.Type }

func (c clock) TimeLeft(now time.Time) time.Duration {
	left := c.cfg.Limit() - now.Sub(c.startedAt)
	if left < 0 {
		return 0
	}
	return left
}
