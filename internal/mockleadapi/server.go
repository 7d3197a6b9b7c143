// Package mockleadapi implements a minimal in-process lead sink with the
// same HTTP surface pkg/leadapi speaks. It backs the local harness and the
// client tests; state is in memory with an optional on-disk head for
// inspection across restarts.
package mockleadapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/leadsmith/leadsmith/internal/lead"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
}

// Server implements the lead API surface used by this module.
type Server struct {
	dataDir string

	mu    sync.Mutex
	calls []Call
	order []string
	leads map[string]lead.Record

	expectedAuthorization string
}

// New constructs a mock server. dataDir is optional; when set, the committed
// lead table is mirrored to disk after every append.
func New(dataDir string) *Server {
	s := &Server{
		dataDir: dataDir,
		leads:   make(map[string]lead.Record),
	}
	s.loadHead()
	return s
}

// RequireBearerToken enforces that requests include an Authorization header
// matching the token. If token is empty, authorization is not enforced.
func (s *Server) RequireBearerToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + token
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/leads/ids", s.handleIDs)
	mux.HandleFunc("/v1/leads/append", s.handleAppend)
	mux.HandleFunc("/v1/leads/export", s.handleExport)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Records returns the stored leads in insertion order.
func (s *Server) Records() []lead.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Server) snapshotLocked() []lead.Record {
	out := make([]lead.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.leads[id])
	}
	return out
}

func (s *Server) recordCall(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	expected := s.expectedAuthorization
	s.mu.Unlock()

	if expected == "" {
		return true
	}
	if r.Header.Get("Authorization") != expected {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return false
	}
	return true
}

func (s *Server) handleIDs(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if !s.authorize(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	s.mu.Lock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"lead_ids": ids})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if !s.authorize(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body", "BAD_REQUEST")
		return
	}
	records, err := lead.ReadCSV(bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "parse csv: "+err.Error(), "INVALID_CSV")
		return
	}

	s.mu.Lock()
	added := 0
	for _, rec := range records {
		if rec.LeadID == "" {
			continue
		}
		if _, ok := s.leads[rec.LeadID]; ok {
			continue
		}
		s.leads[rec.LeadID] = rec
		s.order = append(s.order, rec.LeadID)
		added++
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persistHead(snapshot); err != nil {
		writeError(w, http.StatusInternalServerError, "persist head", "INTERNAL")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"added": added})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if !s.authorize(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	s.mu.Lock()
	records := s.snapshotLocked()
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := lead.WriteCSV(&buf, records); err != nil {
		writeError(w, http.StatusInternalServerError, "encode csv", "INTERNAL")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) headPath() string {
	return filepath.Join(s.dataDir, "leads.csv")
}

func (s *Server) persistHead(records []lead.Record) error {
	if s.dataDir == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := lead.WriteCSV(&buf, records); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(s.headPath(), buf.Bytes(), 0644)
}

func (s *Server) loadHead() {
	if s.dataDir == "" {
		return
	}
	b, err := os.ReadFile(s.headPath())
	if err != nil {
		return
	}
	records, err := lead.ReadCSV(bytes.NewReader(b))
	if err != nil {
		return
	}
	for _, rec := range records {
		if rec.LeadID == "" {
			continue
		}
		if _, ok := s.leads[rec.LeadID]; ok {
			continue
		}
		s.leads[rec.LeadID] = rec
		s.order = append(s.order, rec.LeadID)
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
