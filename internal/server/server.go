// Package server exposes the scan pipeline over a small JSON HTTP API with
// asynchronous scans, progress polling and cooperative cancellation.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/tabledep/tabledep/internal/git"
	"github.com/tabledep/tabledep/internal/runner"
	"github.com/tabledep/tabledep/internal/scanner"
	"github.com/tabledep/tabledep/pkg/shared/config"
)

// Server runs at most one scan at a time; a second request while one is
// active is rejected, never queued.
type Server struct {
	cfg    *config.Config
	logger hclog.Logger

	mu      sync.Mutex
	running bool
	state   scanState
	cancel  atomic.Bool
}

// scanState is the pollable status of the current or last scan.
type scanState struct {
	Phase  string         `json:"phase,omitempty"`
	Detail string         `json:"detail,omitempty"`
	Done   bool           `json:"done"`
	Error  string         `json:"error,omitempty"`
	Result *runner.Result `json:"result,omitempty"`
}

// scanRequest mirrors the web UI's scan form.
type scanRequest struct {
	Source        string `json:"source"` // "local" or "git"
	Repo          string `json:"repo"`
	LocalPath     string `json:"localPath"`
	TableName     string `json:"tableName"`
	FKColumn      string `json:"fkColumn"`
	PKColumn      string `json:"pkColumn"`
	MinConfidence string `json:"minConfidence"`
	Strict        bool   `json:"strictMode"`
}

func New(cfg *config.Config, logger hclog.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/cancel", s.handleCancel)
	mux.HandleFunc("/api/browse", s.handleBrowse)
	return mux
}

// ListenAndServe blocks serving the API on the configured address.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Server.Addr
	s.logger.Info("table dependency scanner listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("POST required"))
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON: "+err.Error()))
		return
	}

	if req.TableName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tableName is required"))
		return
	}
	minConfidence := scanner.ConfidenceLow
	if req.MinConfidence != "" {
		var err error
		minConfidence, err = scanner.ParseConfidence(req.MinConfidence)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
	}
	if req.Source == "git" {
		if req.Repo == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("repo is required for git source"))
			return
		}
	} else {
		if req.LocalPath == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("localPath is required for local source"))
			return
		}
		if info, err := os.Stat(req.LocalPath); err != nil || !info.IsDir() {
			writeJSON(w, http.StatusBadRequest, errorBody("not a directory: "+req.LocalPath))
			return
		}
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, errorBody("a scan is already running"))
		return
	}
	s.running = true
	s.state = scanState{Phase: "starting"}
	s.cancel.Store(false)
	s.mu.Unlock()

	go s.runScan(req, minConfidence)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// runScan executes one scan in the background, updating the pollable state.
func (s *Server) runScan(req scanRequest, minConfidence scanner.Confidence) {
	finish := func(result *runner.Result, errMsg string) {
		s.mu.Lock()
		s.state.Done = true
		s.state.Result = result
		s.state.Error = errMsg
		s.running = false
		s.mu.Unlock()
	}

	root := req.LocalPath
	if req.Source == "git" {
		cloned, err := git.CloneRepository(s.cfg, git.CloneOptions{URL: req.Repo}, s.logger)
		if err != nil {
			finish(nil, err.Error())
			return
		}
		defer git.Cleanup(cloned, s.logger)
		root = cloned
	}

	result, err := runner.Run(runner.Options{
		Root:          root,
		Table:         req.TableName,
		FKColumn:      req.FKColumn,
		PKColumn:      req.PKColumn,
		MinConfidence: minConfidence,
		Strict:        req.Strict,
		Jobs:          s.cfg.Scanner.Jobs,
		Progress: func(phase runner.Phase, detail string) {
			s.mu.Lock()
			s.state.Phase = string(phase)
			s.state.Detail = detail
			s.mu.Unlock()
		},
		Cancelled: s.cancel.Load,
	}, s.logger)
	if err != nil {
		finish(nil, err.Error())
		return
	}
	finish(result, "")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snapshot := s.state
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("POST required"))
		return
	}
	s.cancel.Store(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// handleBrowse lists directories for the UI's path picker.
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("path")
	if target == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
			return
		}
		target = home
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("not a readable directory: "+target))
		return
	}

	type dirEntry struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	dirs := make([]dirEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dirs = append(dirs, dirEntry{Name: entry.Name(), Path: filepath.Join(target, entry.Name())})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })

	abs, _ := filepath.Abs(target)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"current": abs,
		"parent":  filepath.Dir(abs),
		"entries": dirs,
	})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(message string) map[string]string {
	return map[string]string{"status": "error", "message": message}
}
