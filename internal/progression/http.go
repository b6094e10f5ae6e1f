package progression

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/identity"
	httperrors "github.com/geoplay/geoquiz/pkg/http/errors"
)

// HTTPHandler exposes levels and streaks over REST.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "progression_http").Logger(),
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ListLevels handles GET /v1/levels. The table is fixed, so this never
// touches storage.
func (h *HTTPHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"levels": Levels()})
}

// MyStreak handles GET /v1/streaks/me. Guests have no persisted streak.
func (h *HTTPHandler) MyStreak(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "authentication required")
		return
	}
	if id.IsGuest() {
		writeJSON(w, StreakState{})
		return
	}
	state, err := h.svc.Streak(r.Context(), *id.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("streak fetch failed")
		httperrors.RespondInternalError(w, "internal error")
		return
	}
	writeJSON(w, state)
}
