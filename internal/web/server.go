package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/tweetown/tweetown/internal/config"
	"github.com/tweetown/tweetown/internal/core/clock"
	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/core/player"
	"github.com/tweetown/tweetown/internal/core/scene"
	"github.com/tweetown/tweetown/internal/util"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8077"

// frameMessage is one state push to a viewer.
type frameMessage struct {
	Type       string         `json:"type"`
	Snapshot   scene.Snapshot `json:"snapshot"`
	Player     player.Status  `json:"player"`
	ServerTime int64          `json:"server_time"`
}

// controlMessage is a playback command from a viewer.
type controlMessage struct {
	Type  string  `json:"type"`
	Speed float64 `json:"speed,omitempty"`
	Index int     `json:"index,omitempty"`
}

// errorMessage reports a rejected control back to its sender.
type errorMessage struct {
	Type  string `json:"type"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// Config describes one serving session: a fixed event log plus tuning.
type Config struct {
	Addr     string
	Events   []event.Event
	Settings config.Settings
}

// Server owns a player, a stage, and the hub that mirrors them to browsers.
// Playback starts when the first viewer sends a play control.
type Server struct {
	addr      string
	refreshHz int
	stage     *scene.Stage
	plr       *player.Player
	hub       *Hub
	mux       *http.ServeMux
	upgrader  websocket.Upgrader

	mu     sync.Mutex
	runCtx context.Context
}

// New validates the config and wires the playback pipeline.
func New(cfg Config) (*Server, error) {
	if len(cfg.Events) == 0 {
		return nil, errors.New("no events to serve")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Settings.RefreshHz == 0 {
		cfg.Settings = config.Default()
	}

	clk := clock.NewSystem()
	stg := scene.New(clk, scene.Config{LeaderboardSize: cfg.Settings.LeaderboardSize})
	plr := player.New(clk, player.Config{
		MaxGap: cfg.Settings.MaxGap(),
		Speed:  cfg.Settings.Speed,
	})
	stg.Attach(plr)
	plr.Load(cfg.Events)

	s := &Server{
		addr:      cfg.Addr,
		refreshHz: cfg.Settings.RefreshHz,
		stage:     stg,
		plr:       plr,
		hub:       NewHub(cfg.Settings.RefreshHz),
		mux:       http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		runCtx: context.Background(),
	}

	// The last frame of a run must land even if the ticker just fired.
	plr.SetCompleteFunc(func() {
		s.hub.Broadcast(s.frame())
	})

	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s, nil
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is canceled, pushing a frame to all viewers at the
// configured refresh rate while anyone is connected.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	httpSrv := &http.Server{Addr: s.addr, Handler: s.mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	util.LogInfof("serving town on %s", s.addr)

	ticker := time.NewTicker(time.Duration(1000/s.refreshHz) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.plr.Stop()
			shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutCtx)

		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve %s: %w", s.addr, err)

		case <-ticker.C:
			if s.hub.Count() > 0 {
				s.hub.BroadcastThrottled(s.frame())
			}
		}
	}
}

func (s *Server) frame() frameMessage {
	return frameMessage{
		Type:       "frame",
		Snapshot:   s.stage.Snapshot(),
		Player:     s.plr.Status(),
		ServerTime: time.Now().UnixMilli(),
	}
}

// playCtx returns the serving context so playback outlives the control
// socket that started it.
func (s *Server) playCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runCtx
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.LogWarnf("websocket upgrade: %v", err)
		return
	}

	sub := s.hub.Add(conn)
	defer s.hub.Remove(sub)

	if data, err := sonic.Marshal(s.frame()); err == nil {
		if err := sub.send(data); err != nil {
			return
		}
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg controlMessage
		if err := sonic.Unmarshal(payload, &msg); err != nil {
			util.LogWarnf("discarding malformed control message: %v", err)
			continue
		}
		s.dispatch(sub, msg)
	}
}

// dispatch applies one control and answers the sender with a fresh frame.
// Other viewers catch up on the next periodic broadcast.
func (s *Server) dispatch(sub *subscriber, msg controlMessage) {
	var err error
	switch msg.Type {
	case "play":
		s.plr.Play(s.playCtx())
	case "pause":
		s.plr.Pause()
	case "resume":
		s.plr.Resume()
	case "stop":
		s.plr.Stop()
		s.stage.Reset()
	case "replay":
		s.plr.Stop()
		s.stage.Reset()
		s.plr.Play(s.playCtx())
	case "speed":
		s.plr.SetSpeed(msg.Speed)
	case "seek":
		err = s.plr.SeekTo(msg.Index)
	default:
		err = fmt.Errorf("unknown control %q", msg.Type)
	}

	if err != nil {
		data, merr := sonic.Marshal(errorMessage{Type: "error", Op: msg.Type, Error: err.Error()})
		if merr == nil {
			if serr := sub.send(data); serr != nil {
				util.LogDebugf("control error write failed: %v", serr)
			}
		}
		return
	}

	if data, merr := sonic.Marshal(s.frame()); merr == nil {
		if serr := sub.send(data); serr != nil {
			util.LogDebugf("control ack write failed: %v", serr)
		}
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := sonic.Marshal(s.frame())
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
