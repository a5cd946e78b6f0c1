package level

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"classroom-levels-service/internal/domain"
)

var start = time.Date(2025, 12, 19, 9, 0, 0, 0, time.UTC)

func formationConfig() domain.LevelConfig {
	return domain.LevelConfig{ID: "tree", Type: domain.LevelFormation, Title: "Tree", ShapeKey: "tree", TimeLimit: 30}
}

func players(points ...domain.Point) map[string]domain.Participant {
	out := make(map[string]domain.Participant, len(points))
	for i, p := range points {
		id := fmt.Sprintf("p%d", i)
		out[id] = domain.Participant{ID: id, Position: p}
	}
	return out
}

func TestFormationTargetsSplitShape(t *testing.T) {
	shape := []domain.Point{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}
	f := NewFormation(formationConfig(), shape, 3, rand.New(rand.NewSource(1)), start)

	require.Len(t, f.Targets(), 3)
	require.Len(t, f.Static(), 2)
	require.ElementsMatch(t, shape, append(f.Targets(), f.Static()...))
}

func TestFormationMorePlayersThanShape(t *testing.T) {
	shape := []domain.Point{{1, 1}, {2, 2}}
	f := NewFormation(formationConfig(), shape, 7, rand.New(rand.NewSource(1)), start)

	require.ElementsMatch(t, shape, f.Targets())
	require.Empty(t, f.Static())
}

func TestFormationVictoryScenario(t *testing.T) {
	f := &Formation{clock: clock{cfg: formationConfig(), startedAt: start}, targets: []domain.Point{{3, 3}, {4, 4}}}

	require.True(t, f.Won(players(domain.Point{3, 3}, domain.Point{4, 4})))
	require.False(t, f.Won(players(domain.Point{3, 3}, domain.Point{3, 3})))
	require.True(t, f.Won(players(domain.Point{3, 3}, domain.Point{4, 4}, domain.Point{4, 4})))
}

func TestFormationEmptyTargetsNeverWins(t *testing.T) {
	f := NewFormation(formationConfig(), nil, 3, rand.New(rand.NewSource(1)), start)

	require.Empty(t, f.Targets())
	require.False(t, f.Won(players(domain.Point{0, 0})))
	require.False(t, f.Won(nil))
}

func TestFormationVictoryIsSetContainment(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		shape := make([]domain.Point, 0, 6)
		for j := 0; j < 6; j++ {
			shape = append(shape, domain.Point{rnd.Intn(4), rnd.Intn(4)})
		}
		count := 1 + rnd.Intn(6)
		f := NewFormation(formationConfig(), shape, count, rnd, start)

		positions := make([]domain.Point, count)
		for j := range positions {
			positions[j] = domain.Point{rnd.Intn(4), rnd.Intn(4)}
		}
		occupied := map[domain.Point]bool{}
		for _, p := range positions {
			occupied[p] = true
		}
		want := len(f.Targets()) > 0
		for _, target := range f.Targets() {
			want = want && occupied[target]
		}

		require.Equal(t, want, f.Won(players(positions...)), "iteration %d", i)
	}
}

func TestTimeLeft(t *testing.T) {
	f := NewFormation(formationConfig(), nil, 0, rand.New(rand.NewSource(1)), start)

	require.Equal(t, 30*time.Second, f.TimeLeft(start))
	require.Equal(t, 28, Seconds(f.TimeLeft(start.Add(1500*time.Millisecond))))
	require.Zero(t, f.TimeLeft(start.Add(time.Minute)))
	require.Zero(t, Seconds(-time.Second))
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(domain.LevelConfig{ID: "maze", Type: "MAZE"}, nil, 1, rand.New(rand.NewSource(1)), start)
	require.ErrorIs(t, err, domain.ErrUnknownLevelType)

	lvl, err := New(formationConfig(), map[string][]domain.Point{"tree": {{1, 1}}}, 1, rand.New(rand.NewSource(1)), start)
	require.NoError(t, err)
	require.IsType(t, &Formation{}, lvl)
	require.Equal(t, domain.LevelFormation, lvl.Type())
}
