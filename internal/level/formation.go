package level

import (
	"math/rand"
	"time"

	"classroom-levels-service/internal/domain"
)

// Formation asks participants to collectively stand on every target cell.
type Formation struct {
	clock
	targets []domain.Point
	static  []domain.Point
}

// NewFormation picks min(len(shape), participants) distinct shape points as targets.
// The remaining points keep their shape order and are only drawn as a hint.
func NewFormation(cfg domain.LevelConfig, shape []domain.Point, participants int, rnd *rand.Rand, now time.Time) *Formation {
	n := participants
	if n > len(shape) {
		n = len(shape)
	}
	if n < 0 {
		n = 0
	}

	picked := make(map[int]bool, n)
	targets := make([]domain.Point, 0, n)
	for _, i := range rnd.Perm(len(shape))[:n] {
		picked[i] = true
		targets = append(targets, shape[i])
	}

	static := make([]domain.Point, 0, len(shape)-n)
	for i, p := range shape {
		if !picked[i] {
			static = append(static, p)
		}
	}

	return &Formation{
		clock:   clock{cfg: cfg, startedAt: now},
		targets: targets,
		static:  static,
	}
}

// Targets returns the cells that must be occupied.
func (f *Formation) Targets() []domain.Point {
	return append([]domain.Point(nil), f.targets...)
}

// Static returns the scaffolding cells.
func (f *Formation) Static() []domain.Point {
	return append([]domain.Point(nil), f.static...)
}

// Won is true iff every target is occupied by at least one participant. Several
// participants may share a cell. An empty target set can never be won.
func (f *Formation) Won(players map[string]domain.Participant) bool {
	if len(players) == 0 || len(f.targets) == 0 {
		return false
	}

	occupied := make(map[domain.Point]struct{}, len(players))
	for _, p := range players {
		occupied[p.Position] = struct{}{}
	}
	for _, t := range f.targets {
		if _, ok := occupied[t]; !ok {
			return false
		}
	}
	return true
}
