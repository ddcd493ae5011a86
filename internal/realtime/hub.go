package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/middleware"
	"studymate-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

type tokenVerifier interface {
	VerifyToken(token string) (*middleware.UserClaims, error)
}

type groupLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans group events from Redis out to the sockets connected to this
// instance. One Redis subscription exists per group with live sockets.
type Hub struct {
	mu          sync.RWMutex
	clients     map[uuid.UUID][]*client
	cancelFuncs map[uuid.UUID]context.CancelFunc
	redisClient *redis.Client
	verifier    tokenVerifier
	groups      groupLookup
	pending     *PendingSet
	publisher   *Publisher
	log         *logger.Logger
}

func NewHub(redisClient *redis.Client, verifier tokenVerifier, groups groupLookup, pending *PendingSet, publisher *Publisher, log *logger.Logger) *Hub {
	return &Hub{
		clients:     make(map[uuid.UUID][]*client),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		redisClient: redisClient,
		verifier:    verifier,
		groups:      groups,
		pending:     pending,
		publisher:   publisher,
		log:         log.With("component", "ws_hub"),
	}
}

// HandleWebSocket serves /ws?token=...&groupId=...
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, err := h.verifier.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groupID, err := uuid.Parse(r.URL.Query().Get("groupId"))
	if err != nil {
		http.Error(w, "Invalid group id", http.StatusBadRequest)
		return
	}

	group, err := h.groups.GetByID(r.Context(), groupID)
	if err != nil || !group.HasMember(user.UserID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	h.register(groupID, c)

	go func() {
		defer h.unregister(groupID, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(groupID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[groupID] = append(h.clients[groupID], c)

	if len(h.clients[groupID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[groupID] = cancel
		go h.subscribe(ctx, groupID)
	}

	h.log.Debug("websocket connected", "group_id", groupID.String(), "connections", len(h.clients[groupID]))
}

func (h *Hub) unregister(groupID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.clients[groupID]
	for i, existing := range conns {
		if existing == c {
			h.clients[groupID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.clients[groupID]) == 0 {
		delete(h.clients, groupID)
		if cancel, ok := h.cancelFuncs[groupID]; ok {
			cancel()
			delete(h.cancelFuncs, groupID)
		}
	}

	h.log.Debug("websocket disconnected", "group_id", groupID.String())
}

func (h *Hub) subscribe(ctx context.Context, groupID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, GroupChannel(groupID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.Observe([]byte(msg.Payload))
			h.broadcast(groupID, []byte(msg.Payload))
		}
	}
}

type rawEvent struct {
	Type    string          `json:"type"`
	GroupID uuid.UUID       `json:"groupId"`
	Payload json.RawMessage `json:"payload"`
}

// Observe applies a feed event to the pending set: pending entries are added,
// persisted or failed ones are resolved.
func (h *Hub) Observe(data []byte) {
	var ev rawEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return
	}

	switch ev.Type {
	case models.EventBreakdownPending:
		var p models.PendingBreakdown
		if json.Unmarshal(ev.Payload, &p) == nil {
			h.pending.Add(p)
		}
	case models.EventBreakdownPersisted:
		var b models.Breakdown
		if json.Unmarshal(ev.Payload, &b) == nil && b.CorrelationID != nil {
			h.pending.Resolve(ev.GroupID, *b.CorrelationID)
		}
	case models.EventBreakdownFailed:
		var f models.BreakdownFailedEvent
		if json.Unmarshal(ev.Payload, &f) == nil {
			h.pending.Resolve(ev.GroupID, f.CorrelationID)
		}
	}
}

func (h *Hub) broadcast(groupID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := append([]*client(nil), h.clients[groupID]...)
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.log.Debug("websocket write failed", "group_id", groupID.String(), "error", err)
		}
	}
}

// RunExpiry drops stale pending entries every interval and announces each one
// with a breakdown_expired event.
func (h *Hub) RunExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, p := range h.pending.Expire(now) {
				err := h.publisher.Publish(ctx, models.WSMessage{
					Type:    models.EventBreakdownExpired,
					GroupID: p.GroupID,
					Payload: p,
				})
				if err != nil {
					h.log.Warn("failed to publish expiry", "correlation_id", p.CorrelationID, "error", err)
				}
			}
		}
	}
}
