// Package server is the live preview: it serves the rendered page, applies
// tree interactions sent over a websocket, and reloads when the file
// changes.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/mcncl/jsontree/internal/config"
	"github.com/mcncl/jsontree/internal/document"
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/page"
	"github.com/mcncl/jsontree/internal/tree"
	"github.com/mcncl/jsontree/internal/watcher"
)

// WebSocketPath is where the page client connects.
const WebSocketPath = "/ws"

// Message is sent to connected browsers.
type Message struct {
	Type      string    `json:"type"`
	HTML      string    `json:"html,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Message types
const (
	MessageTree  = "tree"
	MessageError = "error"
)

// Client is one websocket connection.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer serves one JSON document with live interaction.
type PreviewServer struct {
	config *config.Config
	path   string
	log    logging.Logger

	// mu serializes every access to page and tree.
	mu      sync.Mutex
	page    *page.Page
	tree    *tree.Tree
	loadErr error

	httpServer   *http.Server
	serverMutex  sync.Mutex
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	unicast      chan unicast
	hubDone      chan struct{}
	pingPeriod   time.Duration
	watcher      *watcher.FileWatcher
}

// New loads path and prepares a server for it. A document that fails to
// load is reported to the browser rather than aborting startup, so fixing
// the file brings the preview back.
func New(cfg *config.Config, path string, logger logging.Logger) *PreviewServer {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &PreviewServer{
		config:     cfg,
		path:       path,
		log:        logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		unicast:    make(chan unicast),
		hubDone:    make(chan struct{}),
		pingPeriod: pingPeriod,
	}
	if err := s.load(); err != nil {
		s.log.Warn(context.Background(), err, "initial load failed", "path", path)
	}
	return s
}

// load parses the file and renders a fresh page. On failure the current
// page is kept. Callers hold mu or have exclusive access.
func (s *PreviewServer) load() error {
	loaded, err := document.LoadFile(s.path, s.config.GuardLimits())
	if err != nil {
		s.loadErr = err
		return err
	}
	p, t := loaded.Render(s.config, s.log)
	p.EnableLive(WebSocketPath)
	s.page, s.tree, s.loadErr = p, t, nil
	return nil
}

// Reload re-reads the file and pushes the new tree to every client. If the
// file no longer loads, clients get the error and the previous tree stays
// interactive.
func (s *PreviewServer) Reload() error {
	s.mu.Lock()
	var msg Message
	err := s.load()
	if err != nil {
		msg = errorMessage(err)
	} else {
		msg = s.stateMessage()
	}
	s.mu.Unlock()

	s.publish(msg)
	if err != nil {
		return err
	}
	s.log.Info(context.Background(), "reloaded document", "path", s.path)
	return nil
}

// Apply runs one tree event and broadcasts the updated tree.
func (s *PreviewServer) Apply(ev tree.Event) error {
	s.mu.Lock()
	if s.tree == nil {
		s.mu.Unlock()
		return errors.NewServerError("no document is loaded", s.loadErr)
	}
	err := s.tree.Dispatch(ev)
	var msg Message
	if err == nil {
		msg = s.stateMessage()
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish(msg)
	return nil
}

// stateMessage describes the current tree, or the load error when no
// document has loaded yet. Callers hold mu.
func (s *PreviewServer) stateMessage() Message {
	if s.tree == nil {
		return errorMessage(s.loadErr)
	}
	var buf bytes.Buffer
	if err := page.RenderChildren(&buf, s.page.Mount()); err != nil {
		return errorMessage(errors.NewRenderError("failed to serialize tree", err))
	}
	return Message{Type: MessageTree, HTML: buf.String(), Timestamp: time.Now()}
}

func errorMessage(err error) Message {
	text := "no document is loaded"
	if err != nil {
		text = errors.UserFriendlyError(err)
	}
	return Message{Type: MessageError, Error: text, Timestamp: time.Now()}
}

func (s *PreviewServer) publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error(context.Background(), err, "failed to encode message")
		return
	}
	select {
	case s.broadcast <- data:
	default:
		s.log.Warn(context.Background(), nil, "broadcast queue full, dropping update")
	}
}

// Stats returns the current tree counters.
func (s *PreviewServer) Stats() (tree.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return tree.Stats{}, false
	}
	return s.tree.Stats(), true
}

// Addr is the configured listen address.
func (s *PreviewServer) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
}

// Start runs the hub, the file watcher and the HTTP server until ctx is
// cancelled.
func (s *PreviewServer) Start(ctx context.Context) error {
	go s.runWebSocketHub(ctx)

	fw, err := watcher.NewFileWatcher(s.config.Server.Debounce, s.log)
	if err != nil {
		return err
	}
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		s.log.Debug(ctx, "file changed", "events", len(events), "type", events[0].Type.String())
		return s.Reload()
	})
	if err := fw.WatchFile(s.path); err != nil {
		_ = fw.Stop()
		return err
	}
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return err
	}
	s.watcher = fw

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "preview server listening", "url", fmt.Sprintf("http://%s", s.Addr()), "path", s.path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.NewServerError("server stopped", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		_ = s.watcher.Stop()
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown stops the HTTP server and the watcher.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.log.Warn(ctx, err, "failed to stop watcher")
		}
	}

	s.serverMutex.Lock()
	srv := s.httpServer
	s.serverMutex.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.NewServerError("shutdown failed", err)
	}
	return nil
}
