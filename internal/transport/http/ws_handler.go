package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"classroom-levels-service/internal/protocol"
	"classroom-levels-service/internal/transport/hub"
)

const (
	defaultSendBuffer = 64
	wsWriteTimeout    = 5 * time.Second
	wsMaxMessageSize  = 64 * 1024
)

// Handler is the coordinator surface a WebSocket participant talks to.
type Handler interface {
	protocol.Handler
	Connect(participant string)
	Leave(participant string)
}

// WSHandler speaks the line protocol over WebSocket, one JSON message per text frame.
type WSHandler struct {
	handler    Handler
	hub        *hub.Hub
	sendBuffer int
	upgrader   websocket.Upgrader
}

func NewWSHandler(handler Handler, h *hub.Hub, sendBuffer int) *WSHandler {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &WSHandler{
		handler:    handler,
		hub:        h,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the participant until the socket closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	conn.SetReadLimit(wsMaxMessageSize)

	id := uuid.NewString()
	client := hub.NewClient(id, h.sendBuffer, conn)
	h.hub.Register(client)
	log.Debug().Str("participant", id).Str("remote", r.RemoteAddr).Msg("ws client connected")

	// single writer per connection, gorilla does not allow concurrent writes
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range client.Outbound() {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("participant", id).Msg("ws write failed")
				client.Close()
				for range client.Outbound() {
				}
				return
			}
		}
	}()

	h.handler.Connect(id)

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if typ != websocket.TextMessage {
			continue
		}
		if err := protocol.Dispatch(h.handler, id, data); err != nil {
			log.Warn().Err(err).Str("participant", id).Msg("skipping frame")
		}
	}

	h.hub.Unregister(id)
	client.Close()
	<-writerDone
	h.handler.Leave(id)
	log.Debug().Str("participant", id).Msg("ws client disconnected")
}
