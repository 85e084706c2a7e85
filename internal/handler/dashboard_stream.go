package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/security/auth"
	"github.com/yourorg/feedbackflow/internal/service"
)

// DashboardStreamHandler handles WebSocket connections that let the UI pull
// a fresh dashboard without re-issuing HTTP requests. The stream is purely
// pull-driven: the client sends "refresh" and receives a recomputed view.
// Nothing is pushed on its own, so a client that never asks never sees new
// data.
type DashboardStreamHandler struct {
	dashboards     *service.DashboardService
	directory      domain.UserDirectory
	tokens         *auth.TokenManager
	logger         *slog.Logger
	allowedOrigins []string
}

// NewDashboardStreamHandler creates a new dashboard stream handler.
func NewDashboardStreamHandler(
	dashboards *service.DashboardService,
	directory domain.UserDirectory,
	tokens *auth.TokenManager,
	logger *slog.Logger,
	allowedOrigins []string,
) *DashboardStreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardStreamHandler{
		dashboards:     dashboards,
		directory:      directory,
		tokens:         tokens,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *DashboardStreamHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

type streamMessage struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// ServeHTTP handles WebSocket requests for the live dashboard.
// Browsers cannot set an Authorization header on a WebSocket handshake,
// so the token travels as a query parameter.
func (h *DashboardStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("websocket token rejected", slog.String("error", err.Error()))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	ctx := r.Context()

	// Heartbeat ping to keep connection alive
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
			case <-done:
				return
			}
		}
	}()

	// First frame is an unsolicited initial view so the client has
	// something to render before its first refresh.
	h.sendView(ws, r, claims.UserID)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed", slog.String("user_id", claims.UserID))
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		if string(msg) == "refresh" {
			h.sendView(ws, r, claims.UserID)
		}
	}
}

func (h *DashboardStreamHandler) sendView(ws *websocket.Conn, r *http.Request, userID string) {
	user, err := h.directory.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = ws.WriteJSON(streamMessage{Type: "error", Error: "user no longer exists"})
			return
		}
		h.logger.Error("directory lookup failed", slog.String("error", err.Error()))
		_ = ws.WriteJSON(streamMessage{Type: "error", Error: "directory unavailable"})
		return
	}

	view, err := h.dashboards.ViewFor(r.Context(), user)
	if err != nil {
		h.logger.Error("failed to compute dashboard",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		_ = ws.WriteJSON(streamMessage{Type: "error", Error: "failed to compute dashboard"})
		return
	}

	if err := ws.WriteJSON(streamMessage{Type: "dashboard", Data: view}); err != nil {
		h.logger.Debug("websocket write failed", slog.String("error", err.Error()))
	}
}
