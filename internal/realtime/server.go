package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Authenticator validates handshake tokens and the account behind them.
type Authenticator interface {
	ParseToken(raw string) (uuid.UUID, error)
	ActiveUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Server accepts socket handshakes on its own listener.
type Server struct {
	hub      *Hub
	auth     Authenticator
	path     string
	upgrader websocket.Upgrader
	origins  originPolicy
	http     *http.Server
}

// NewServer builds the handshake endpoint. allowedOrigins is the CORS_ORIGIN value.
func NewServer(hub *Hub, auth Authenticator, path, allowedOrigins string) *Server {
	s := &Server{
		hub:     hub,
		auth:    auth,
		path:    path,
		origins: newOriginPolicy(allowedOrigins),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.allowed,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.ServeWS)
	return mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	slog.Info("socket server starting", "addr", addr, "path", s.path)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// ServeWS authenticates the handshake before upgrading. Missing or bad tokens
// get 401 and disabled or deleted accounts get 403.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	raw := handshakeToken(r)
	if raw == "" {
		httpError(w, http.StatusUnauthorized, "Authentication token is required")
		return
	}
	userID, err := s.auth.ParseToken(raw)
	if err != nil {
		httpError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if _, err := s.auth.ActiveUser(r.Context(), userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrAccountDisabled) {
			httpError(w, http.StatusForbidden, err.Error())
			return
		}
		slog.Error("socket handshake failed", "user_id", userID.String(), "error", err)
		httpError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("socket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, s.hub, userID, r.RemoteAddr)
	select {
	case s.hub.register <- client:
	case <-s.hub.ctx.Done():
		_ = conn.Close()
	}
}

func handshakeToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func httpError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": true, "message": message})
}

// originPolicy mirrors CORS_ORIGIN: "*" allows everything, otherwise a comma
// separated list of scheme://host origins. Requests without an Origin header
// come from native clients and are allowed.
type originPolicy struct {
	allowAll bool
	origins  map[string]bool
}

func newOriginPolicy(raw string) originPolicy {
	p := originPolicy{origins: make(map[string]bool)}
	for _, origin := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			p.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			slog.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		p.origins[normalized] = true
	}
	return p
}

func (p originPolicy) allowed(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" || p.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(header)
	if ok && p.origins[normalized] {
		return true
	}
	slog.Warn("blocked socket connection from disallowed origin", "origin", header)
	return false
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
