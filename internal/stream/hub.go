// Package stream pushes rendered view states to dashboard clients over WebSocket.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const defaultSendBuffer = 64

// Message is the envelope every frame carries.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Options configure the hub.
type Options struct {
	// SendBuffer is the per-client queue; a client that falls this far behind is dropped.
	SendBuffer int
	// AllowedOrigins limits browser origins; empty or "*" allows any.
	AllowedOrigins []string
}

// Hub maintains the set of active clients and broadcasts messages to them.
// The client set is owned by the Run goroutine.
type Hub struct {
	opts     Options
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	doneOnce   sync.Once

	clients map[*client]struct{}
	count   atomic.Int64
}

// NewHub builds a hub; call Run to start serving it.
func NewHub(opts Options, logger zerolog.Logger) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	h := &Hub{
		opts:       opts,
		logger:     logger.With().Str("component", "stream").Logger(),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, opts.SendBuffer),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.doneOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			h.logger.Debug().Msg("stream hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.greet(c)
			h.logger.Debug().Str("remote", c.remote).Msg("stream client registered")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug().Str("remote", c.remote).Msg("stream client unregistered")
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.logger.Warn().Str("remote", c.remote).Msg("stream client too slow, dropping")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Publish broadcasts one message. It never blocks: when the hub is stopped or its
// queue is full the message is dropped.
func (h *Hub) Publish(topic string, payload any) {
	if h == nil {
		return
	}
	raw, err := encode(Message{Type: topic, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("type", topic).Msg("encode stream message")
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- raw:
	default:
		h.logger.Warn().Str("type", topic).Msg("stream queue full, message dropped")
	}
}

// Serve upgrades the request and registers the connection. initial, when set, is
// rendered once the client is registered, so it is queued ahead of every later broadcast.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial func() []Message) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, h.opts.SendBuffer),
		remote:  conn.RemoteAddr().String(),
		initial: initial,
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return nil
	}

	go c.writePump()
	go c.readPump()
	return nil
}

// greet runs on the Run goroutine, before any broadcast can reach c.
func (h *Hub) greet(c *client) {
	if c.initial == nil {
		return
	}
	for _, m := range c.initial() {
		raw, err := encode(m)
		if err != nil {
			h.logger.Error().Err(err).Str("type", m.Type).Msg("encode stream message")
			continue
		}
		select {
		case c.send <- raw:
		default:
			h.logger.Warn().Str("remote", c.remote).Msg("stream client buffer full on connect")
			return
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
