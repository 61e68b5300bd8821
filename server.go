package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
}

// AgentState is the mutable status the local server exposes: the outcome of
// the most recent check-in attempt plus the active session, for display on
// whatever is supervising the kiosk.
type AgentState struct {
	sessions *SessionManager

	mu            sync.RWMutex
	lastResult    *CheckInResult
	lastError     string
	lastAttemptAt time.Time
}

func NewAgentState(sessions *SessionManager) *AgentState {
	return &AgentState{sessions: sessions}
}

func (s *AgentState) RecordSuccess(result CheckInResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = &result
	s.lastError = ""
	s.lastAttemptAt = time.Now()
}

func (s *AgentState) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = nil
	s.lastError = err.Error()
	s.lastAttemptAt = time.Now()
}

// StatusResponse is the payload of GET /api/status.
type StatusResponse struct {
	LastResult    *CheckInResult `json:"last_result,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	LastAttemptAt *time.Time     `json:"last_attempt_at,omitempty"`
	Session       *SessionInfo   `json:"session,omitempty"`
}

// SessionInfo is the displayable slice of the active session. The token
// itself is never exposed here.
type SessionInfo struct {
	UserID int       `json:"user_id"`
	Role   string    `json:"role"`
	Expiry time.Time `json:"expiry"`
}

func (s *AgentState) snapshot(ctx context.Context) StatusResponse {
	s.mu.RLock()
	resp := StatusResponse{
		LastResult: s.lastResult,
		LastError:  s.lastError,
	}
	if !s.lastAttemptAt.IsZero() {
		at := s.lastAttemptAt
		resp.LastAttemptAt = &at
	}
	s.mu.RUnlock()

	if s.sessions != nil {
		if session, err := s.sessions.Session(ctx); err == nil {
			resp.Session = &SessionInfo{
				UserID: session.UserID,
				Role:   session.Role,
				Expiry: session.Expiry,
			}
		}
	}
	return resp
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting status server with TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	} else {
		slog.Info("Starting status server without TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServe()
	}
}

func (s *Server) Stop() error {
	slog.Info("Shutting down status server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during status server shutdown", "error", err)
	} else {
		slog.Info("Status server shut down successfully")
	}
	return err
}

// NewStatusServer builds the kiosk's local HTTP surface: a health probe and
// a read-only status endpoint. This is operational plumbing for whoever runs
// the kiosk; the attendance API itself lives on the remote backend.
func NewStatusServer(state *AgentState, config ServerConfig) (*Server, error) {
	slog.Info("Creating status server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Health check request received")
		err := json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		if err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		handleStatus(state, w, r)
	}).Methods(http.MethodGet)

	slog.Debug("Registered all status routes")

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler: router,
		Addr:    addr,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	slog.Info("Status server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

func handleStatus(state *AgentState, w http.ResponseWriter, r *http.Request) {
	slog.Debug("Status request received")
	if err := writeJSON(w, http.StatusOK, state.snapshot(r.Context())); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	slog.Debug("Writing JSON response", "status_code", status)
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
	return nil
}
