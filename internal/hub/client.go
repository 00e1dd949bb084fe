package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/event"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// tuning parameters
	writeWait           = 10 * time.Second       // time allowed to write a message to the peer
	pongWait            = 20 * time.Second       // time allowed to read the next pong from the peer
	pingInterval        = (pongWait * 9) / 10    // send pings with this period
	maxMessageSize      = int64(8 * 1024)        // max inbound frame size; clients only send control traffic
	sendBufSize         = 256                    // per-connection outbound buffer size
	sendTimeout         = 2 * time.Second        // timeout for enqueuing outbound events
	presenceSendTimeout = 200 * time.Millisecond // presence pushes are dropped faster
	registerTimeout     = 5 * time.Second        // timeout for client registration
	unregisterTimeout   = 5 * time.Second        // timeout for client unregistration
)

// conn is the subset of *websocket.Conn the client uses; tests substitute
// an in-memory fake.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one live connection bound to a user identity. A user may hold
// several clients at once (multiple tabs/devices); each receives its own
// copy of every event addressed to the user.
type Client struct {
	ID     string
	UserID string

	conn conn
	hub  *Hub

	egress chan event.Outbound

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	closedMu sync.RWMutex
	closed   bool
}

// RegisterClient wraps conn into a Client, registers it with the hub and
// starts its pumps. Returns nil when registration times out.
func RegisterClient(userID string, c conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		conn:   c,
		hub:    h,
		egress: make(chan event.Outbound, sendBufSize),
		ctx:    ctx,
		cancel: cancel,
	}

	select {
	case h.register <- client:
		go client.readPump()
		go client.writePump()
		return client
	case <-time.After(registerTimeout):
		h.logger.Warn("client registration timed out",
			zap.String("user_id", userID),
		)
		cancel()
		_ = c.Close()
		return nil
	}
}

// readPump drains the connection until it drops. Clients send no
// application data upstream (messages travel over the REST API); the read
// loop exists to notice disconnects and keep the pong handler serviced.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-time.After(unregisterTimeout):
			c.hub.logger.Warn("client unregistration timed out",
				zap.String("client_id", c.ID),
			)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.hub.logger.Info("client timed out",
						zap.String("client_id", c.ID),
					)
					return
				}
				c.hub.logger.Debug("client read error",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case ev := <-c.egress:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.hub.logger.Debug("client write error",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// SafeSend enqueues an event for delivery. Returns false when the client is
// closed or its buffer stays full past timeout; the event is dropped.
func (c *Client) SafeSend(ev event.Outbound, timeout time.Duration) bool {
	if c.IsClosed() {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close tears the client down exactly once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		c.cancel()
	})
}

// IsClosed reports whether the client has been torn down.
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}
