package tcp_test

import (
	"bufio"
	"context"
	"encoding/json"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"classroom-levels-service/internal/app"
	"classroom-levels-service/internal/domain"
	"classroom-levels-service/internal/infra/memory"
	"classroom-levels-service/internal/transport/hub"
	"classroom-levels-service/internal/transport/tcp"
)

type frame struct {
	Type     string          `json:"type"`
	Count    int             `json:"count"`
	Title    string          `json:"title"`
	LevelTyp string          `json:"lvl_type"`
	Players  json.RawMessage `json:"players"`
}

func startServer(t *testing.T) (*app.Coordinator, *hub.Hub, string) {
	t.Helper()

	cat := domain.Catalog{
		ID: "test",
		LevelSequence: []domain.LevelConfig{
			{ID: "line", Type: domain.LevelFormation, Title: "Line", ShapeKey: "line", TimeLimit: 600},
		},
		Shapes: map[string][]domain.Point{"line": {{0, 0}, {1, 0}}},
	}
	h := hub.New()
	coord := app.NewCoordinator(h, memory.NewCatalogRepository(memory.NewStaticCatalogLoader(cat), time.Minute), app.Options{
		CatalogID: "test",
		Rand:      rand.New(rand.NewSource(1)),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := tcp.NewServer("", coord, h, 16)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})
	return coord, h, ln.Addr().String()
}

type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &client{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *client) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

// next reads frames until one of the given type arrives.
func (c *client) next(typ string) frame {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		line, err := c.r.ReadBytes('\n')
		require.NoError(c.t, err)
		var f frame
		require.NoError(c.t, json.Unmarshal(line, &f))
		if f.Type == typ {
			return f
		}
	}
}

func TestServerJoinMoveAndSync(t *testing.T) {
	coord, h, addr := startServer(t)
	cl := dial(t, addr)

	require.Equal(t, 0, cl.next("lobby_sync").Count)

	cl.send(`{"type":"join","name":"Ana"}`)
	require.Equal(t, 1, cl.next("lobby_sync").Count)

	// malformed frames are skipped, the connection keeps working
	cl.send(`not json`)
	cl.send(`{"type":"dance"}`)
	cl.send(`{"type":"move","x":3,"y":4}`)

	require.Eventually(t, func() bool {
		ps := coord.Participants()
		return len(ps) == 1 && ps[0].Position == domain.Point{3, 4}
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, coord.StartSession(context.Background()))
	require.Equal(t, "Line", cl.next("start_level").Title)

	coord.Tick()
	sync := cl.next("sync")
	require.Equal(t, "FORMATION", sync.LevelTyp)
	require.Contains(t, string(sync.Players), `"name":"Ana"`)
	require.Equal(t, 1, h.Len())
}

func TestServerLeaveOnDisconnect(t *testing.T) {
	coord, h, addr := startServer(t)

	stay := dial(t, addr)
	stay.next("lobby_sync")
	stay.send(`{"type":"join","name":"Stay"}`)
	stay.next("lobby_sync")

	gone := dial(t, addr)
	gone.next("lobby_sync")
	gone.send(`{"type":"join","name":"Gone"}`)
	require.Eventually(t, func() bool { return len(coord.Participants()) == 2 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, gone.conn.Close())

	require.Eventually(t, func() bool {
		return len(coord.Participants()) == 1 && h.Len() == 1
	}, 3*time.Second, 10*time.Millisecond)
	require.Equal(t, "Stay", coord.Participants()[0].Name)
}
