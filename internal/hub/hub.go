package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"net/http"
	"sync"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/event"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	shardCount = 32 // tune: 16/32/64 depending on load
)

// userBucket holds the delivery groups for one shard. A delivery group is
// the set of live connections bound to one user id (one per open tab).
type userBucket struct {
	sync.RWMutex
	users map[string]map[string]*Client // userID -> clientID -> client
}

// Hub is the presence registry and event router. It maps user identities to
// their live connections and fans events out to every connection in a user's
// delivery group. It owns no persistence: offline users simply miss live
// events and reconcile from history.
type Hub struct {
	shards     [shardCount]*userBucket
	register   chan *Client
	unregister chan *Client
	logger     *zap.Logger
	origins    map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a hub and starts its registration loop. allowedOrigins
// whitelists websocket upgrade origins.
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		logger:     logger,
		origins:    make(map[string]bool, len(allowedOrigins)),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	for _, o := range allowedOrigins {
		h.origins[o] = true
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &userBucket{users: make(map[string]map[string]*Client)}
	}

	go h.run()

	return h
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
			h.broadcastPresence()
		case c := <-h.unregister:
			h.removeClient(c)
			h.broadcastPresence()
		}
	}
}

func getShard(userID string) uint32 {
	if userID == "" {
		return 0
	}
	sum := sha1.Sum([]byte(userID))
	return binary.BigEndian.Uint32(sum[:4]) % shardCount
}

// addClient binds a connection to its user's delivery group. Re-registering
// the same connection is a no-op.
func (h *Hub) addClient(c *Client) {
	b := h.shards[getShard(c.UserID)]
	b.Lock()
	defer b.Unlock()

	group, ok := b.users[c.UserID]
	if !ok {
		group = make(map[string]*Client)
		b.users[c.UserID] = group
	}
	if _, exists := group[c.ID]; exists {
		return
	}

	group[c.ID] = c
	h.logger.Info("client registered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID),
	)
}

// removeClient drops a connection from its user's delivery group and closes
// it. Unknown connections are a no-op.
func (h *Hub) removeClient(c *Client) {
	b := h.shards[getShard(c.UserID)]
	b.Lock()
	defer b.Unlock()

	group, ok := b.users[c.UserID]
	if !ok {
		return
	}
	if _, exists := group[c.ID]; !exists {
		return
	}

	delete(group, c.ID)
	if len(group) == 0 {
		delete(b.users, c.UserID)
	}

	c.Close()
	h.logger.Info("client removed",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID),
	)
}

// IsOnline reports whether at least one live connection is bound to userID.
func (h *Hub) IsOnline(userID string) bool {
	b := h.shards[getShard(userID)]
	b.RLock()
	defer b.RUnlock()
	return len(b.users[userID]) > 0
}

// OnlineUserIDs returns every user id with at least one live connection.
func (h *Hub) OnlineUserIDs() []string {
	ids := make([]string, 0)
	for _, b := range h.shards {
		b.RLock()
		for userID := range b.users {
			ids = append(ids, userID)
		}
		b.RUnlock()
	}
	return ids
}

// EmitToUser pushes an event to every live connection bound to userID.
// A user with no live connections is a silent no-op. Delivery is best
// effort: a full or closed connection drops the event and the client
// reconciles from history on its next fetch.
func (h *Hub) EmitToUser(userID string, name string, payload any) {
	ev, err := event.NewOutbound(name, payload)
	if err != nil {
		h.logger.Error("failed to encode event",
			zap.String("event", name),
			zap.Error(err),
		)
		return
	}

	b := h.shards[getShard(userID)]
	b.RLock()
	group := b.users[userID]
	clients := make([]*Client, 0, len(group))
	for _, c := range group {
		clients = append(clients, c)
	}
	b.RUnlock()

	for _, c := range clients {
		if !c.SafeSend(ev, sendTimeout) {
			h.logger.Warn("dropped event for slow client",
				zap.String("event", name),
				zap.String("client_id", c.ID),
				zap.String("user_id", userID),
			)
		}
	}
}

// broadcastPresence pushes the current online-user set to every connection.
// Purely a UI affordance; failures are dropped.
func (h *Hub) broadcastPresence() {
	payload := event.OnlineUsersPayload{UserIDs: h.OnlineUserIDs()}
	ev, err := event.NewOutbound(event.EventOnlineUsers, payload)
	if err != nil {
		h.logger.Error("failed to encode presence event", zap.Error(err))
		return
	}

	for _, c := range h.snapshotClients() {
		_ = c.SafeSend(ev, presenceSendTimeout)
	}
}

func (h *Hub) snapshotClients() []*Client {
	clients := make([]*Client, 0)
	for _, b := range h.shards {
		b.RLock()
		for _, group := range b.users {
			for _, c := range group {
				clients = append(clients, c)
			}
		}
		b.RUnlock()
	}
	return clients
}

// Stop tears the hub down: stops the registration loop and closes every
// live connection.
func (h *Hub) Stop() {
	h.cancel()
	<-h.done

	for _, c := range h.snapshotClients() {
		c.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	return h.origins[r.Header.Get("Origin")]
}

// ServeWS upgrades the request and registers the connection under userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	up := upgrader
	up.CheckOrigin = h.checkOrigin

	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userID, conn, h)
}
