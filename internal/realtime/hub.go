package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"forklifttracker/internal/metrics"
	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 32
)

// MemberLookup resolves who receives a company event.
type MemberLookup interface {
	ActiveUserIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}

// Hub tracks websocket connections per user and pushes domain events to them.
type Hub struct {
	members  MemberLookup
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
}

type client struct {
	hub    *Hub
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func NewHub(members MemberLookup) *Hub {
	return &Hub{
		members: members,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Authentication happens before the upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[uuid.UUID]map[*client]struct{}),
	}
}

// Serve upgrades the request and blocks until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{hub: h, userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	log.Debug().Str("user_id", userID.String()).Msg("Websocket client connected")

	go c.writePump()
	c.readPump()
	return nil
}

// Publish pushes the event to every connected recipient.
func (h *Hub) Publish(ctx context.Context, event *models.Event) error {
	recipients := event.Recipients
	if recipients == nil {
		ids, err := h.members.ActiveUserIDs(ctx, event.CompanyID)
		if err != nil {
			metrics.EventsPublished.WithLabelValues("websocket", event.Type, "error").Inc()
			return err
		}
		recipients = ids
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var slow []*client
	h.mu.RLock()
	for _, userID := range recipients {
		for c := range h.clients[userID] {
			select {
			case c.send <- payload:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Ctx(ctx).Warn().Str("user_id", c.userID.String()).Msg("Dropping slow websocket client")
		c.close()
	}
	metrics.EventsPublished.WithLabelValues("websocket", event.Type, "ok").Inc()
	return nil
}

// Connected reports how many connections a user holds.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	metrics.WebsocketClients.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	metrics.WebsocketClients.Dec()
}

func (c *client) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.send)
	})
}

// readPump discards client messages; it exists to process pongs and detect closes.
func (c *client) readPump() {
	defer func() {
		c.close()
		c.conn.Close()
		log.Debug().Str("user_id", c.userID.String()).Msg("Websocket client disconnected")
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("user_id", c.userID.String()).Msg("Websocket error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
