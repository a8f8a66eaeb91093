package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Elizabethomito/skillswap/backend/internal/auth"
	"github.com/Elizabethomito/skillswap/backend/internal/logging"
)

// ServeWS handles GET /api/ws?token=<jwt>
//
// Browsers cannot set an Authorization header on a websocket handshake,
// so the token travels in the query string instead.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "realtime updates are disabled")
		return
	}
	claims, err := auth.ParseToken(r.URL.Query().Get("token"), s.Secret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return
	}
	// Upgrade failures have already written an HTTP error to w.
	if err := s.Hub.Serve(w, r, claims.UserID); err != nil {
		s.logger().Debug("websocket upgrade failed", slog.String("user_id", claims.UserID), logging.Err(err))
	}
}
