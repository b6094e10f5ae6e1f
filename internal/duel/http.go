package duel

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/game"
	"github.com/geoplay/geoquiz/internal/identity"
	httperrors "github.com/geoplay/geoquiz/pkg/http/errors"
)

// HTTPHandlers exposes the duel flow over REST.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "duel_http").Logger(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAuthRequired):
		httperrors.RespondForbidden(w, httperrors.ErrCodeAuthenticationRequired, err.Error())
	case errors.Is(err, ErrInvalidToken):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidChallenge, err.Error())
	case errors.Is(err, ErrGameTypeMismatch):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameTypeMismatch, err.Error())
	case errors.Is(err, ErrSelfChallenge):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeSelfChallenge, err.Error())
	case errors.Is(err, ErrSeedMismatch):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeSeedMismatch, err.Error())
	case errors.Is(err, ErrNotDuelSession), errors.Is(err, ErrSessionUnfinished):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeConflict, err.Error())
	case errors.Is(err, ErrAlreadyReconciled):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeAlreadyReconciled, err.Error())
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrNotOwner):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "session not found")
	default:
		var incomplete *game.IncompleteSessionError
		if errors.As(err, &incomplete) {
			httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeSessionIncomplete, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("duel operation failed")
		httperrors.RespondInternalError(w, "internal error")
	}
}

func requestIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "authentication required")
		return identity.Identity{}, false
	}
	return id, true
}

type challengeRequest struct {
	SessionID uuid.UUID `json:"session_id"`
}

// IssueChallenge handles POST /v1/duels/challenge.
func (h *HTTPHandlers) IssueChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed request body")
		return
	}
	token, err := h.svc.IssueChallenge(r.Context(), id, req.SessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"challenge": token})
}

type acceptRequest struct {
	GameType  string `json:"game_type"`
	Challenge string `json:"challenge"`
}

// AcceptChallenge handles POST /v1/duels/accept.
func (h *HTTPHandlers) AcceptChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed request body")
		return
	}
	session, err := h.svc.AcceptChallenge(r.Context(), id, req.GameType, req.Challenge)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type reconcileRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Challenge string    `json:"challenge"`
}

// Reconcile handles POST /v1/duels/reconcile.
func (h *HTTPHandlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed request body")
		return
	}
	result, err := h.svc.Reconcile(r.Context(), id, req.SessionID, req.Challenge)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// GetResult handles GET /v1/duels/{id}.
func (h *HTTPHandlers) GetResult(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestIdentity(w, r); !ok {
		return
	}
	duelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid duel id")
		return
	}
	result, err := h.svc.Result(r.Context(), duelID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if result == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeDuelNotFound, "duel not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// History handles GET /v1/duels.
func (h *HTTPHandlers) History(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	results, err := h.svc.History(r.Context(), id, 0)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"duels": results})
}
