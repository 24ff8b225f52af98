package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Conn is the subset of a websocket connection the hub uses.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type client struct {
	conn Conn
	send chan Frame
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub owns the set of connected clients. Each client has its own buffered writer,
// so one slow or broken client never delays the others.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	buffer  int
	logger  *zap.Logger
}

// NewHub creates an empty hub. buffer is the per-client frame backlog.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		buffer:  buffer,
		logger:  logger,
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues frame for every client without blocking. A client whose
// backlog is full misses this frame but stays connected.
func (h *Hub) Broadcast(frame Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case <-c.done:
		case c.send <- frame:
		default:
			h.logger.Warn("live client backlog full; frame dropped",
				zap.String("frame", string(frame.Type)),
				zap.String("ticket_id", frame.TicketID))
		}
	}
}

func (h *Hub) register(conn Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan Frame, h.buffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("live client connected", zap.Int("clients", total))
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()
	c.stop()
	if ok {
		h.logger.Debug("live client disconnected", zap.Int("clients", total))
	}
}

// Serve runs one client until its connection reports closure. viewer, when
// non-empty, replaces the user id a client puts on its view_ticket messages.
func (h *Hub) Serve(conn Conn, viewer string) {
	c := h.register(conn)
	defer h.unregister(c)

	go h.write(c)

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != inboundViewTicket || msg.TicketID == "" {
			continue
		}
		userID := msg.UserID
		if viewer != "" {
			userID = viewer
		}
		h.Broadcast(Frame{Type: FrameTicketViewed, TicketID: msg.TicketID, UserID: userID})
	}
}

func (h *Hub) write(c *client) {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.conn.WriteJSON(frame); err != nil {
				h.logger.Debug("live client write failed", zap.Error(err))
				h.unregister(c)
				_ = c.conn.Close()
				return
			}
		}
	}
}
