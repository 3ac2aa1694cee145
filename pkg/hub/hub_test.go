package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-sonicnav/internal/log"
)

type written struct {
	kind int
	data []byte
}

type fakeConn struct {
	writes    chan written
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{writes: make(chan written, 16), closed: make(chan struct{})}
}

func (c *fakeConn) SetReadLimit(int64)                {}
func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("closed")
	default:
	}
	c.writes <- written{kind: kind, data: data}
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func next(t *testing.T, c *fakeConn) written {
	t.Helper()
	select {
	case w := <-c.writes:
		return w
	case <-time.After(time.Second):
		t.Fatal("no message written")
		return written{}
	}
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test", log.Discard())
	go h.Run(ctx)

	a, b := newFakeConn(), newFakeConn()
	go NewClient(h, a).Run()
	go NewClient(h, b, NewJSONMessage([]byte(`{"hello":true}`))).Run()

	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, h.IsRunning())

	w := next(t, b)
	assert.Equal(t, websocket.TextMessage, w.kind)
	assert.JSONEq(t, `{"hello":true}`, string(w.data))

	require.NoError(t, h.BroadcastJSON(map[string]int{"n": 1}))
	w = next(t, a)
	assert.Equal(t, websocket.TextMessage, w.kind)
	assert.JSONEq(t, `{"n":1}`, string(w.data))
	assert.JSONEq(t, `{"n":1}`, string(next(t, b).data))
}

func TestHub_ClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test", log.Discard())
	go h.Run(ctx)

	c := newFakeConn()
	go NewClient(h, c).Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New("test", log.Discard())
	go h.Run(ctx)

	c := newFakeConn()
	go NewClient(h, c).Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.False(t, h.IsRunning())
	assert.Zero(t, h.ClientCount())
	assert.Equal(t, websocket.CloseMessage, next(t, c).kind)

	// Registering after shutdown must not block.
	late := NewClient(h, newFakeConn())
	_, ok := <-late.send
	assert.False(t, ok)
}
