package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/event"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeConn is an in-memory websocket connection. ReadMessage blocks until
// the connection is closed, mirroring a quiet client.
type fakeConn struct {
	mu      sync.Mutex
	written []event.Outbound

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) WriteJSON(v any) error {
	ev, ok := v.(event.Outbound)
	if !ok {
		return errors.New("unexpected payload type")
	}
	f.mu.Lock()
	f.written = append(f.written, ev)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error          { return nil }
func (f *fakeConn) WriteControl(mt int, data []byte, deadline time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(limit int64)                                 {}
func (f *fakeConn) SetReadDeadline(t time.Time) error                        { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error                       { return nil }
func (f *fakeConn) SetPongHandler(h func(string) error)                      {}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) eventsNamed(name string) []event.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []event.Outbound
	for _, ev := range f.written {
		if ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zap.NewNop(), nil)
	t.Cleanup(h.Stop)
	return h
}

func waitOnline(t *testing.T, h *Hub, userID string, online bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.IsOnline(userID) == online
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRegisterMakesUserOnline(t *testing.T) {
	h := newTestHub(t)

	c := RegisterClient("u1", newFakeConn(), h)
	require.NotNil(t, c)

	waitOnline(t, h, "u1", true)
	require.Contains(t, h.OnlineUserIDs(), "u1")
	require.False(t, h.IsOnline("u2"))
}

func TestDisconnectRemovesConnection(t *testing.T) {
	h := newTestHub(t)

	fc := newFakeConn()
	c := RegisterClient("u1", fc, h)
	require.NotNil(t, c)
	waitOnline(t, h, "u1", true)

	// Dropping the connection ends the read pump, which unregisters.
	fc.Close()
	waitOnline(t, h, "u1", false)
}

func TestEmitToUserReachesEveryConnection(t *testing.T) {
	h := newTestHub(t)

	tab1 := newFakeConn()
	tab2 := newFakeConn()
	other := newFakeConn()
	require.NotNil(t, RegisterClient("u1", tab1, h))
	require.NotNil(t, RegisterClient("u1", tab2, h))
	require.NotNil(t, RegisterClient("u2", other, h))
	waitOnline(t, h, "u1", true)
	waitOnline(t, h, "u2", true)

	h.EmitToUser("u1", event.EventReceiveMessage, map[string]string{"text": "hi"})

	// Each of the user's connections gets exactly one copy.
	require.Eventually(t, func() bool {
		return len(tab1.eventsNamed(event.EventReceiveMessage)) == 1 &&
			len(tab2.eventsNamed(event.EventReceiveMessage)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Empty(t, other.eventsNamed(event.EventReceiveMessage))
}

func TestEmitToOfflineUserIsNoop(t *testing.T) {
	h := newTestHub(t)

	// Must not panic or block.
	h.EmitToUser("nobody", event.EventReceiveMessage, map[string]string{"text": "hi"})
}

func TestPresenceBroadcastOnRegister(t *testing.T) {
	h := newTestHub(t)

	fc := newFakeConn()
	require.NotNil(t, RegisterClient("u1", fc, h))

	require.Eventually(t, func() bool {
		return len(fc.eventsNamed(event.EventOnlineUsers)) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSafeSendAfterCloseIsRejected(t *testing.T) {
	h := newTestHub(t)

	c := RegisterClient("u1", newFakeConn(), h)
	require.NotNil(t, c)
	waitOnline(t, h, "u1", true)

	c.Close()

	ev, err := event.NewOutbound(event.EventReceiveMessage, map[string]string{"text": "late"})
	require.NoError(t, err)
	require.False(t, c.SafeSend(ev, 50*time.Millisecond))
}

func TestMonitorCountsConnectionsPerUser(t *testing.T) {
	h := newTestHub(t)

	require.NotNil(t, RegisterClient("u1", newFakeConn(), h))
	require.NotNil(t, RegisterClient("u1", newFakeConn(), h))
	require.NotNil(t, RegisterClient("u2", newFakeConn(), h))
	waitOnline(t, h, "u1", true)
	waitOnline(t, h, "u2", true)

	stats := NewMonitorService(h).GetStats()
	require.Equal(t, 3, stats.Connections)
	require.Equal(t, 2, stats.OnlineUsers)
	require.Len(t, stats.Users, 2)
	require.Equal(t, "u1", stats.Users[0].UserID)
	require.Equal(t, 2, stats.Users[0].Connections)
}
