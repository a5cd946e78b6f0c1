package app

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"classroom-levels-service/internal/domain"
)

func TestRegistryAddAssignsSpawnAndColor(t *testing.T) {
	r := NewRegistry(20, rand.New(rand.NewSource(1)))

	p := r.Add("p1", "Eva")
	require.Equal(t, domain.Point{10, 10}, p.Position)
	for _, ch := range p.Color {
		require.GreaterOrEqual(t, ch, 50)
		require.LessOrEqual(t, ch, 255)
	}

	again := r.Add("p1", "Evička")
	require.Equal(t, "Evička", again.Name)
	require.Equal(t, p.Color, again.Color)
	require.Equal(t, 1, r.Count())
}

func TestRegistryMoveClamps(t *testing.T) {
	r := NewRegistry(20, rand.New(rand.NewSource(1)))
	r.Add("p1", "Eva")

	rnd := rand.New(rand.NewSource(9))
	for i := 0; i < 1000; i++ {
		p, ok := r.Move("p1", rnd.Intn(200)-100, rnd.Intn(200)-100)
		require.True(t, ok)
		require.GreaterOrEqual(t, p.Position.X(), 0)
		require.LessOrEqual(t, p.Position.X(), 19)
		require.GreaterOrEqual(t, p.Position.Y(), 0)
		require.LessOrEqual(t, p.Position.Y(), 19)
	}

	p, _ := r.Move("p1", -5, 99)
	require.Equal(t, domain.Point{0, 19}, p.Position)
	p, _ = r.Move("p1", 3, 4)
	require.Equal(t, domain.Point{3, 4}, p.Position)

	_, ok := r.Move("ghost", 1, 1)
	require.False(t, ok)
}

func TestRegistryJoinMoveRemoveRoundTrip(t *testing.T) {
	r := NewRegistry(20, rand.New(rand.NewSource(1)))
	r.Add("a", "Adam")
	r.Add("b", "Bara")
	before := r.Snapshot()

	r.Add("c", "Cyril")
	r.Move("c", 4, 4)
	require.True(t, r.Remove("c"))
	require.False(t, r.Remove("c"))

	require.Equal(t, 2, r.Count())
	require.Equal(t, before, r.Snapshot())
}

func TestRegistrySmallGridSpawn(t *testing.T) {
	r := NewRegistry(5, rand.New(rand.NewSource(1)))
	require.Equal(t, domain.Point{4, 4}, r.Add("p1", "Eva").Position)
}

func TestRegistryListOrder(t *testing.T) {
	r := NewRegistry(20, rand.New(rand.NewSource(1)))
	r.Add("2", "Bara")
	r.Add("1", "Adam")
	r.Add("0", "Bara")

	list := r.List()
	require.Equal(t, []string{"1", "0", "2"}, []string{list[0].ID, list[1].ID, list[2].ID})
}
