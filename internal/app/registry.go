package app

import (
	"math/rand"
	"sort"

	"classroom-levels-service/internal/domain"
)

const (
	// DefaultGridSize is the side length of the square playfield.
	DefaultGridSize = 20

	colorFloor = 50
)

// SpawnPoint is where every participant starts.
var SpawnPoint = domain.Point{10, 10}

// Registry tracks joined participants. It is not safe for concurrent use; the
// Coordinator serializes access to it.
type Registry struct {
	gridSize     int
	rnd          *rand.Rand
	participants map[string]domain.Participant
}

func NewRegistry(gridSize int, rnd *rand.Rand) *Registry {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	return &Registry{
		gridSize:     gridSize,
		rnd:          rnd,
		participants: make(map[string]domain.Participant),
	}
}

// Add registers a participant at the spawn point with a random color. Joining
// again only changes the name.
func (r *Registry) Add(id, name string) domain.Participant {
	if p, ok := r.participants[id]; ok {
		p.Name = name
		r.participants[id] = p
		return p
	}

	p := domain.Participant{
		ID:       id,
		Name:     name,
		Position: domain.Point{r.clamp(SpawnPoint.X()), r.clamp(SpawnPoint.Y())},
		Color:    domain.Color{r.channel(), r.channel(), r.channel()},
	}
	r.participants[id] = p
	return p
}

func (r *Registry) channel() int {
	return colorFloor + r.rnd.Intn(256-colorFloor)
}

func (r *Registry) Remove(id string) bool {
	if _, ok := r.participants[id]; !ok {
		return false
	}
	delete(r.participants, id)
	return true
}

// Move clamps x and y into the grid and stores them as-is. Distance and
// collisions are not checked.
func (r *Registry) Move(id string, x, y int) (domain.Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return domain.Participant{}, false
	}
	p.Position = domain.Point{r.clamp(x), r.clamp(y)}
	r.participants[id] = p
	return p, true
}

func (r *Registry) Get(id string) (domain.Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

func (r *Registry) Count() int {
	return len(r.participants)
}

// Snapshot returns a copy keyed by participant id.
func (r *Registry) Snapshot() map[string]domain.Participant {
	out := make(map[string]domain.Participant, len(r.participants))
	for id, p := range r.participants {
		out[id] = p
	}
	return out
}

// List returns participants ordered by name, then id.
func (r *Registry) List() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > r.gridSize-1 {
		return r.gridSize - 1
	}
	return v
}
