package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweetown/tweetown/internal/config"
	"github.com/tweetown/tweetown/internal/data/source"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	events := source.Generate(source.Options{Tweets: 3, Seed: 11})
	s, err := New(Config{Events: events, Settings: config.Default()})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dialViewer(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readRaw(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return data
}

func readFrame(t *testing.T, conn *websocket.Conn) frameMessage {
	t.Helper()
	var f frameMessage
	require.NoError(t, sonic.Unmarshal(readRaw(t, conn), &f))
	return f
}

func sendControl(t *testing.T, conn *websocket.Conn, msg controlMessage) {
	t.Helper()
	data, err := sonic.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestNewRejectsEmptyLog(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestViewerGetsInitialFrame(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialViewer(t, ts)

	f := readFrame(t, conn)
	assert.Equal(t, "frame", f.Type)
	assert.False(t, f.Player.IsPlaying)
	assert.Greater(t, f.Player.TotalEvents, 0)
	assert.Equal(t, "idle", f.Snapshot.Meta.Status)
	assert.NotZero(t, f.ServerTime)
}

func TestControlRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialViewer(t, ts)
	readFrame(t, conn)

	sendControl(t, conn, controlMessage{Type: "speed", Speed: 4})
	assert.Equal(t, 4.0, readFrame(t, conn).Player.Speed)

	sendControl(t, conn, controlMessage{Type: "play"})
	assert.True(t, readFrame(t, conn).Player.IsPlaying)

	sendControl(t, conn, controlMessage{Type: "pause"})
	assert.True(t, readFrame(t, conn).Player.IsPaused)

	sendControl(t, conn, controlMessage{Type: "resume"})
	assert.False(t, readFrame(t, conn).Player.IsPaused)

	sendControl(t, conn, controlMessage{Type: "stop"})
	f := readFrame(t, conn)
	assert.False(t, f.Player.IsPlaying)
	assert.Equal(t, 0, f.Player.CurrentIndex)
	assert.Equal(t, "idle", f.Snapshot.Meta.Status)
}

func TestUnknownControlGetsError(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialViewer(t, ts)
	readFrame(t, conn)

	sendControl(t, conn, controlMessage{Type: "warp"})

	var errMsg errorMessage
	require.NoError(t, sonic.Unmarshal(readRaw(t, conn), &errMsg))
	assert.Equal(t, "error", errMsg.Type)
	assert.Equal(t, "warp", errMsg.Op)
	assert.Contains(t, errMsg.Error, "unknown control")
}

func TestSeekOutOfRangeGetsError(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialViewer(t, ts)
	readFrame(t, conn)

	sendControl(t, conn, controlMessage{Type: "seek", Index: 10000})

	var errMsg errorMessage
	require.NoError(t, sonic.Unmarshal(readRaw(t, conn), &errMsg))
	assert.Equal(t, "error", errMsg.Type)
	assert.Equal(t, "seek", errMsg.Op)
}

func TestSnapshotEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var f frameMessage
	require.NoError(t, sonic.Unmarshal(body, &f))
	assert.Equal(t, "frame", f.Type)
	assert.Greater(t, f.Player.TotalEvents, 0)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHubRemovesDeadViewers(t *testing.T) {
	hub := NewHub(20)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(conn)
	}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		hub.Broadcast(map[string]string{"type": "ping"})
		return hub.Count() == 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestHubThrottleCapsBurst(t *testing.T) {
	hub := NewHub(5)

	sent := 0
	for i := 0; i < 20; i++ {
		if hub.BroadcastThrottled(map[string]string{"type": "ping"}) {
			sent++
		}
	}
	assert.GreaterOrEqual(t, sent, 2, "burst allowance should pass")
	assert.Less(t, sent, 10, "rate cap should hold the rest")
}
