package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/page"
)

// Handler routes the preview endpoints.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /tree", s.handleTree)
	mux.HandleFunc("GET "+WebSocketPath, s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// handleIndex serves the whole page. Before any document has loaded it
// serves a live error page, so fixing the file brings the tree in.
func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	status := http.StatusOK

	s.mu.Lock()
	if s.page != nil {
		err := s.page.Render(&buf)
		s.mu.Unlock()
		if err != nil {
			s.log.Error(r.Context(), err, "failed to render page")
			http.Error(w, "failed to render page", http.StatusInternalServerError)
			return
		}
	} else {
		msg := errorMessage(s.loadErr).Error
		s.mu.Unlock()

		p := page.New(s.config.Output.Title, s.config.Output.Lang)
		p.ShowError(msg)
		p.EnableLive(WebSocketPath)
		if err := p.Render(&buf); err != nil {
			http.Error(w, msg, http.StatusServiceUnavailable)
			return
		}
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// handleTree serves the mount contents only.
func (s *PreviewServer) handleTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	msg := s.stateMessage()
	s.mu.Unlock()

	if msg.Type == MessageError {
		http.Error(w, msg.Error, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(msg.HTML))
}

type healthResponse struct {
	Status           string `json:"status"`
	Path             string `json:"path"`
	Loaded           bool   `json:"loaded"`
	Error            string `json:"error,omitempty"`
	Clients          int    `json:"clients"`
	TreeID           string `json:"tree_id,omitempty"`
	Nodes            int    `json:"nodes"`
	Virtualized      bool   `json:"virtualized"`
	Deferred         int    `json:"deferred"`
	Observed         int    `json:"observed"`
	Materializations int    `json:"materializations"`
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Path: s.path, Clients: s.ClientCount()}

	s.mu.Lock()
	if s.loadErr != nil {
		resp.Status = "degraded"
		resp.Error = errors.UserFriendlyError(s.loadErr)
	}
	if s.tree != nil {
		st := s.tree.Stats()
		resp.Loaded = true
		resp.TreeID = st.ID
		resp.Nodes = st.NodeCount
		resp.Virtualized = st.Virtualized
		resp.Deferred = st.Deferred
		resp.Observed = st.Observed
		resp.Materializations = st.Materializations
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn(r.Context(), err, "failed to write health response")
	}
}
