package ranking

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/identity"
	httperrors "github.com/geoplay/geoquiz/pkg/http/errors"
)

// HTTPHandler exposes leaderboard queries over REST.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "ranking_http").Logger(),
	}
}

func isValidWindow(window string) bool {
	switch window {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime:
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Top handles GET /v1/leaderboards/{window}?game_type=...&limit=10.
func (h *HTTPHandler) Top(w http.ResponseWriter, r *http.Request) {
	window := r.PathValue("window")
	if !isValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "unknown leaderboard window")
		return
	}

	gameType := r.URL.Query().Get("game_type")
	if gameType == "" {
		gameType = GameTypeOverall
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	top, err := h.svc.Top(r.Context(), gameType, window, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("window", window).Msg("leaderboard fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeLeaderboardFetchFailed, "leaderboard unavailable")
		return
	}

	writeJSON(w, map[string]interface{}{
		"window":      window,
		"game_type":   gameType,
		"top":         top,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// Me handles GET /v1/leaderboards/{window}/me?game_type=... and reports the
// caller's rank, null when unranked. Guests are never ranked.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	window := r.PathValue("window")
	if !isValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "unknown leaderboard window")
		return
	}

	id, ok := identity.FromContext(r.Context())
	if !ok || id.IsGuest() {
		writeJSON(w, map[string]interface{}{"window": window, "rank": nil})
		return
	}

	gameType := r.URL.Query().Get("game_type")
	if gameType == "" {
		gameType = GameTypeOverall
	}

	rank, err := h.svc.UserRank(r.Context(), *id.UserID, gameType, window)
	if err != nil {
		h.logger.Error().Err(err).Str("window", window).Msg("rank fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeLeaderboardFetchFailed, "leaderboard unavailable")
		return
	}

	writeJSON(w, map[string]interface{}{
		"window":    window,
		"game_type": gameType,
		"rank":      rank,
	})
}
