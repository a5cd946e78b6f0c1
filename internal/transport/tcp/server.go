// Package tcp serves participants over raw TCP, one JSON message per line.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"classroom-levels-service/internal/protocol"
	"classroom-levels-service/internal/transport/hub"
)

const (
	// MaxFrameSize bounds one inbound line.
	MaxFrameSize = 64 * 1024

	defaultSendBuffer = 64
	writeTimeout      = 5 * time.Second
)

// Handler is the coordinator surface a connection talks to.
type Handler interface {
	protocol.Handler
	Connect(participant string)
	Leave(participant string)
}

type Server struct {
	addr       string
	handler    Handler
	hub        *hub.Hub
	sendBuffer int

	wg sync.WaitGroup
}

func NewServer(addr string, handler Handler, h *hub.Hub, sendBuffer int) *Server {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Server{addr: addr, handler: handler, hub: h, sendBuffer: sendBuffer}
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. Open connections are
// closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info().Str("addr", ln.Addr().String()).Msg("tcp transport listening")

	var (
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
	)
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		mu.Lock()
		for c := range conns {
			_ = c.Close()
		}
		mu.Unlock()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			log.Warn().Err(err).Msg("accept failed")
			continue
		}

		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
			mu.Lock()
			delete(conns, conn)
			mu.Unlock()
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	id := uuid.NewString()
	client := hub.NewClient(id, s.sendBuffer, conn)
	s.hub.Register(client)
	log.Debug().Str("participant", id).Str("remote", conn.RemoteAddr().String()).Msg("tcp client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeLoop(conn, client)
	}()

	s.handler.Connect(id)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), MaxFrameSize)
	for scanner.Scan() {
		if err := protocol.Dispatch(s.handler, id, scanner.Bytes()); err != nil {
			log.Warn().Err(err).Str("participant", id).Msg("skipping frame")
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Debug().Err(err).Str("participant", id).Msg("tcp read ended")
	}

	s.hub.Unregister(id)
	client.Close()
	<-writerDone
	s.handler.Leave(id)
	log.Debug().Str("participant", id).Msg("tcp client disconnected")
}

// writeLoop drains the client queue until the hub closes it. A failed write
// closes the connection so the read side notices.
func writeLoop(conn net.Conn, client *hub.Client) {
	w := bufio.NewWriter(conn)
	for msg := range client.Outbound() {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, _ = w.Write(msg)
		_ = w.WriteByte('\n')
		// bufio errors are sticky, Flush reports any of them
		if err := w.Flush(); err != nil {
			log.Debug().Err(err).Str("participant", client.ID()).Msg("tcp write failed")
			client.Close()
			// keep draining so the hub never sees a stuck queue
			for range client.Outbound() {
			}
			return
		}
	}
}
