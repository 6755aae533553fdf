package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"imitation-game/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	sendBuffer    = 256
	writeWait     = 10 * time.Second
	pongWait      = time.Minute
	pingPeriod    = pongWait * 9 / 10
	maxFrameBytes = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the router middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	done    chan struct{}
	once    sync.Once
}

func newClient(conn *websocket.Conn, perSecond float64, burst int) *client {
	return &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		done:    make(chan struct{}),
	}
}

// enqueue never blocks. A full buffer means the peer stopped reading.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans room events out to connections. It implements game.Emitter and is
// called with room locks held, so nothing here blocks on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	groups  map[string]map[string]struct{}
	log     zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]struct{}),
		log:     log.With().Str("module", "hub").Logger(),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
	for room, group := range h.groups {
		delete(group, c.id)
		if len(group) == 0 {
			delete(h.groups, room)
		}
	}
}

func (h *Hub) Subscribe(room, conn string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[room]
	if group == nil {
		group = make(map[string]struct{})
		h.groups[room] = group
	}
	group[conn] = struct{}{}
}

func (h *Hub) Unsubscribe(room, conn string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[room]
	if group == nil {
		return
	}
	delete(group, conn)
	if len(group) == 0 {
		delete(h.groups, room)
	}
}

func (h *Hub) Broadcast(room string, event game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Warn().Str("session", room).Str("type", event.Type).Err(err).Msg("encode event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.groups[room] {
		h.deliverLocked(id, data)
	}
}

func (h *Hub) Close(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, room)
}

// Send delivers one frame to a single connection.
func (h *Hub) Send(conn string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn().Str("conn", conn).Err(err).Msg("encode frame")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(conn, data)
}

// Members lists the connections subscribed to room.
func (h *Hub) Members(room string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := make([]string, 0, len(h.groups[room]))
	for id := range h.groups[room] {
		members = append(members, id)
	}
	slices.Sort(members)
	return members
}

func (h *Hub) deliverLocked(id string, data []byte) {
	c := h.clients[id]
	if c == nil {
		return
	}
	if !c.enqueue(data) {
		h.log.Warn().Str("conn", id).Msg("send buffer full, dropping connection")
		c.close()
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	cl := newClient(conn, s.cfg.EventsPerSecond, s.cfg.EventBurst)
	s.ws.register(cl)
	s.log.Info().Str("conn", cl.id).Str("remote", c.Request.RemoteAddr).Msg("ws connected")
	s.ws.Send(cl.id, outboundFrame{Type: frameConnected, Data: connectedPayload{ConnID: cl.id}})
	go s.writePump(cl)
	go s.readPump(cl)
}

func (s *Server) readPump(c *client) {
	defer s.disconnect(c)
	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Str("conn", c.id).Err(err).Msg("ws read failed")
			}
			return
		}
		if !c.limiter.Allow() {
			s.log.Debug().Str("conn", c.id).Msg("frame rate limited")
			continue
		}
		var frame inboundFrame
		if err := readJSON(bytes.NewReader(data), &frame); err != nil {
			s.log.Debug().Str("conn", c.id).Err(err).Msg("malformed frame")
			continue
		}
		s.dispatch(c, frame)
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) disconnect(c *client) {
	s.ws.unregister(c)
	c.close()
	s.rooms.Disconnect(c.id)
	s.log.Info().Str("conn", c.id).Msg("ws disconnected")
}
