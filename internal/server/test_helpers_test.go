package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"imitation-game/internal/config"
	"imitation-game/internal/game"
	"imitation-game/internal/media"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// newGameServer wires a server with media under a temp dir and short timers.
func newGameServer(t *testing.T, cfg config.Config) (*Server, *game.Registry) {
	t.Helper()
	root := t.TempDir()
	cfg.UploadsDir = filepath.Join(root, "uploads")
	cfg.ClipsDir = filepath.Join(root, "public")
	store, err := media.New(cfg.UploadsDir, cfg.ClipsDir)
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	hub := NewHub()
	rooms := game.NewRegistry(game.Deps{
		Emitter: hub,
		Clips:   store,
		Media:   store,
		Settings: game.Settings{
			CountdownDelay: 50 * time.Millisecond,
			VotePause:      50 * time.Millisecond,
		},
	}, nil)
	t.Cleanup(rooms.Shutdown)
	return New(rooms, hub, store, cfg), rooms
}
