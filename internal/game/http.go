package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/catalog"
	"github.com/geoplay/geoquiz/internal/geo"
	"github.com/geoplay/geoquiz/internal/identity"
	httperrors "github.com/geoplay/geoquiz/pkg/http/errors"
)

// HTTPHandlers exposes the session lifecycle over REST.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "game_http").Logger(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondServiceError maps domain errors onto HTTP statuses. Ownership
// failures deliberately read as not-found so session ids cannot be probed.
func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error) {
	var incomplete *IncompleteSessionError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrNotOwner):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "session not found")
	case errors.Is(err, ErrRoundNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeRoundNotFound, "round not found")
	case errors.Is(err, ErrSessionCompleted):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeSessionCompleted, "session already completed")
	case errors.Is(err, ErrRoundAlreadyAnswered):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeRoundAnswered, "round already answered")
	case errors.Is(err, ErrRoundNotStarted):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeRoundNotStarted, "round not started")
	case errors.Is(err, ErrInvalidMode):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMode, err.Error())
	case errors.Is(err, ErrInvalidCoordinate):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidCoordinate, err.Error())
	case errors.Is(err, catalog.ErrUnknownGameType):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeUnknownGameType, err.Error())
	case errors.Is(err, catalog.ErrInactiveGameType):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInactiveGameType, err.Error())
	case errors.Is(err, catalog.ErrEmptyPool):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeEmptyLocationPool, err.Error())
	case errors.As(err, &incomplete):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeSessionIncomplete, err.Error())
	default:
		h.logger.Error().Err(err).Msg("session operation failed")
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

func pathSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func pathRoundNo(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("round"))
	if err != nil || n < 1 {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid round number")
		return 0, false
	}
	return n, true
}

// CreateSession handles POST /v1/sessions.
func (h *HTTPHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed request body")
		return
	}
	session, err := h.svc.CreateSession(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /v1/sessions/{id}.
func (h *HTTPHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	session, err := h.svc.GetSession(r.Context(), id, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ListRounds handles GET /v1/sessions/{id}/rounds.
func (h *HTTPHandlers) ListRounds(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	views, err := h.svc.Rounds(r.Context(), id, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rounds": views})
}

// StartRound handles POST /v1/sessions/{id}/rounds/{round}/start.
func (h *HTTPHandlers) StartRound(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	roundNo, ok := pathRoundNo(w, r)
	if !ok {
		return
	}
	result, err := h.svc.StartRound(r.Context(), id, sessionID, roundNo)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type guessRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SubmitGuess handles POST /v1/sessions/{id}/rounds/{round}/guess.
func (h *HTTPHandlers) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	roundNo, ok := pathRoundNo(w, r)
	if !ok {
		return
	}
	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed request body")
		return
	}
	result, err := h.svc.SubmitGuess(r.Context(), id, sessionID, roundNo, geo.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RoundHint handles GET /v1/sessions/{id}/rounds/{round}/hint.
func (h *HTTPHandlers) RoundHint(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	roundNo, ok := pathRoundNo(w, r)
	if !ok {
		return
	}
	circle, err := h.svc.RoundHint(r.Context(), id, sessionID, roundNo)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, circle)
}

// CompleteSession handles POST /v1/sessions/{id}/complete.
func (h *HTTPHandlers) CompleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.CompleteSession(r.Context(), id, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
