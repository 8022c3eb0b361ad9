package ws

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis channels for cross-instance fan-out
const (
	accountEventsChannel = "push:account_events"
	adminEventsChannel   = "push:admin_events"
	presenceKey          = "push:presence:online"
)

var (
	wsConnectionsGauge   = expvar.NewInt("push_connections")
	wsEventsSentTotal    = expvar.NewInt("push_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("push_events_dropped_total")
)

type accountEventMessage struct {
	AccountID        string          `json:"account_id,omitempty"`
	Payload          json.RawMessage `json:"payload"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Hub manages push connections with Redis Pub/Sub so events reach
// subscribers connected to other instances. Without Redis the hub degrades
// to local-only delivery.
type Hub struct {
	// Local connections (this instance only)
	connections map[uuid.UUID]map[*Connection]bool

	// Accounts on this instance subscribed to the admin room
	adminRoom map[uuid.UUID]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
	publishFn  func(ctx context.Context, channel string, payload []byte) error
}

// NewHub creates a push hub
func NewHub(redisClient *redis.Client) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString())
}

// NewHubWithInstanceID creates a push hub with an explicit instance identifier.
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		adminRoom:   make(map[uuid.UUID]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, accountEventsChannel, adminEventsChannel)
		h.publishFn = func(ctx context.Context, channel string, payload []byte) error {
			return redisClient.Publish(ctx, channel, payload).Err()
		}
	}

	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.AccountID] == nil {
				h.connections[conn.AccountID] = make(map[*Connection]bool)
			}
			h.connections[conn.AccountID][conn] = true
			if conn.Admin {
				h.adminRoom[conn.AccountID] = true
			}
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)

			h.markPresence(conn.AccountID, true)
			log.Debug().Str("account_id", conn.AccountID.String()).Bool("admin", conn.Admin).Msg("Push client connected")

		case conn := <-h.unregister:
			lastConnection := false
			h.mu.Lock()
			if conns, ok := h.connections[conn.AccountID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					wsConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.AccountID)
					delete(h.adminRoom, conn.AccountID)
					lastConnection = true
				}
			}
			h.mu.Unlock()

			if lastConnection {
				h.markPresence(conn.AccountID, false)
			}
			log.Debug().Str("account_id", conn.AccountID.String()).Msg("Push client disconnected")
		}
	}
}

// Stop shuts down the hub and its Redis subscription.
func (h *Hub) Stop() {
	h.cancel()
	if h.pubsub != nil {
		_ = h.pubsub.Close()
	}
}

func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event accountEventMessage
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			if event.SenderInstanceID == h.instanceID {
				continue
			}

			switch msg.Channel {
			case accountEventsChannel:
				accountID, err := uuid.Parse(event.AccountID)
				if err != nil {
					continue
				}
				h.sendLocal(accountID, []byte(event.Payload))
			case adminEventsChannel:
				h.sendLocalToAdmins([]byte(event.Payload))
			}
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// SendToAccountJSON delivers the payload to every active connection of the
// account, on this instance and (via Redis) on every other one.
func (h *Hub) SendToAccountJSON(accountID uuid.UUID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.sendLocal(accountID, data)
	return h.publishEvent(accountEventsChannel, accountID.String(), data)
}

// SendToAdminsJSON delivers the payload to every connected admin across all
// instances.
func (h *Hub) SendToAdminsJSON(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.sendLocalToAdmins(data)
	return h.publishEvent(adminEventsChannel, "", data)
}

func (h *Hub) sendLocal(accountID uuid.UUID, data []byte) {
	// The read lock is held across the loop: Run mutates the inner map and
	// closes Send channels under the write lock, so iterating or sending
	// after releasing it would race a connect/disconnect. Sends are
	// non-blocking, so the lock is held only briefly.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[accountID] {
		select {
		case conn.Send <- data:
			wsEventsSentTotal.Add(1)
		default:
			// Buffer full
			wsEventsDroppedTotal.Add(1)
			log.Warn().Str("account_id", accountID.String()).Msg("Push send buffer full")
		}
	}
}

func (h *Hub) sendLocalToAdmins(data []byte) {
	h.mu.RLock()
	admins := make([]uuid.UUID, 0, len(h.adminRoom))
	for accountID := range h.adminRoom {
		admins = append(admins, accountID)
	}
	h.mu.RUnlock()

	for _, accountID := range admins {
		h.sendLocal(accountID, data)
	}
}

func (h *Hub) publishEvent(channel, accountID string, data []byte) error {
	if h.publishFn == nil {
		return nil
	}

	event := accountEventMessage{
		AccountID:        accountID,
		Payload:          data,
		SenderInstanceID: h.instanceID,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.publishFn(h.ctx, channel, payload)
}

func (h *Hub) markPresence(accountID uuid.UUID, online bool) {
	if h.redis == nil {
		return
	}

	ctx := context.Background()
	if online {
		h.redis.SAdd(ctx, presenceKey, accountID.String())
		h.redis.Expire(ctx, presenceKey, 5*time.Minute)
	} else {
		h.redis.SRem(ctx, presenceKey, accountID.String())
	}
}

// IsOnline checks if an account has an active connection (across instances)
func (h *Hub) IsOnline(accountID uuid.UUID) bool {
	if h.redis == nil {
		h.mu.RLock()
		conns, ok := h.connections[accountID]
		h.mu.RUnlock()
		return ok && len(conns) > 0
	}

	return h.redis.SIsMember(context.Background(), presenceKey, accountID.String()).Val()
}
