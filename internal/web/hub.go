// Package web serves the town over HTTP: a websocket feed of state frames
// plus playback control messages, for browser front ends instead of the
// terminal dashboard.
package web

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tweetown/tweetown/internal/util"
)

// writeWait bounds a single frame write so one stalled viewer cannot wedge
// the broadcast path.
const writeWait = 10 * time.Second

// subscriber is one connected viewer. The mutex serializes writes because
// a websocket connection allows only one concurrent writer.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans state frames out to every connected viewer and caps how often
// the periodic broadcast path may fire.
type Hub struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	limiter *rate.Limiter
}

// NewHub builds a hub whose throttled broadcasts are capped at maxHz frames
// per second.
func NewHub(maxHz int) *Hub {
	if maxHz <= 0 {
		maxHz = 20
	}
	return &Hub{
		subs:    make(map[*subscriber]struct{}),
		limiter: rate.NewLimiter(rate.Limit(maxHz), 2),
	}
}

// Add registers a connection and returns its subscriber handle.
func (h *Hub) Add(conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Remove drops a subscriber and closes its connection. Safe to call twice.
func (h *Hub) Remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.conn.Close()
}

// Count reports the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast marshals msg once and writes it to every viewer, dropping the
// ones whose writes fail.
func (h *Hub) Broadcast(msg any) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		util.LogErrorf("marshal broadcast: %v", err)
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.send(data); err != nil {
			util.LogDebugf("dropping viewer: %v", err)
			h.Remove(sub)
		}
	}
}

// BroadcastThrottled is Broadcast behind the hub's rate cap. It reports
// whether the frame went out.
func (h *Hub) BroadcastThrottled(msg any) bool {
	if !h.limiter.Allow() {
		return false
	}
	h.Broadcast(msg)
	return true
}
