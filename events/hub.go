package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultQueueSize is how many events a slow client may lag behind before events
	// are dropped for it.
	DefaultQueueSize = 64

	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Hub fans published events out to every connected websocket client.
type Hub struct {
	upgrader  websocket.Upgrader
	queueSize int
	logger    *log.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn  *websocket.Conn
	addr  string
	queue chan Event
	done  chan struct{}

	// writeMu guards conn writes; gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

// NewHub returns a hub with no clients.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		queueSize: DefaultQueueSize,
		logger:    logger,
		clients:   make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues e for every client. Clients whose queue is full miss it.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.queue <- e:
		default:
			h.logger.Printf("events: dropping %s event for slow client %s", e.Type, c.addr)
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams events to it until either
// side closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("events: websocket upgrade error: %v", err)
		return
	}

	c := &client{
		conn:  conn,
		addr:  conn.RemoteAddr().String(),
		queue: make(chan Event, h.queueSize),
		done:  make(chan struct{}),
	}
	if !h.add(c) {
		conn.Close()
		return
	}
	h.logger.Printf("events: client %s connected", c.addr)

	go c.readLoop()
	c.writeLoop(h.logger)

	h.remove(c)
	conn.Close()
	h.logger.Printf("events: client %s disconnected", c.addr)
}

// Close disconnects every client and refuses new ones. Close frames are written after
// the clients are detached, so Publish does not wait on a slow connection.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	clear(h.clients)
	h.mu.Unlock()

	for _, c := range clients {
		c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		c.conn.Close()
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// readLoop discards client messages; it only notices the connection going away.
func (c *client) readLoop() {
	defer close(c.done)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop(logger *log.Logger) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-c.done:
			return
		case e := <-c.queue:
			if err := c.writeJSON(e); err != nil {
				logger.Printf("events: write to %s: %v", c.addr, err)
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// Server serves a Hub at Path.
type Server struct {
	Hub  *Hub
	Path string

	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and returns a server ready to Serve.
func Listen(addr, path string, hub *Hub) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, hub)

	return &Server{
		Hub:  hub,
		Path: path,
		srv:  &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		ln:   ln,
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve blocks until Shutdown is called.
func (s *Server) Serve() error {
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects clients and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Hub.Close()
	return s.srv.Shutdown(ctx)
}
