package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Session errors
	ErrCodeSessionNotFound   = "session_not_found"
	ErrCodeRoundNotFound     = "round_not_found"
	ErrCodeSessionCompleted  = "session_completed"
	ErrCodeSessionIncomplete = "session_incomplete"
	ErrCodeRoundNotStarted   = "round_not_started"
	ErrCodeRoundAnswered     = "round_already_answered"
	ErrCodeInvalidMode       = "invalid_mode"
	ErrCodeInvalidCoordinate = "invalid_coordinate"
	ErrCodeUnknownGameType   = "unknown_game_type"
	ErrCodeInactiveGameType  = "inactive_game_type"
	ErrCodeEmptyLocationPool = "empty_location_pool"

	// Duel errors
	ErrCodeInvalidChallenge  = "invalid_challenge"
	ErrCodeGameTypeMismatch  = "game_type_mismatch"
	ErrCodeSelfChallenge     = "self_challenge"
	ErrCodeSeedMismatch      = "seed_mismatch"
	ErrCodeDuelNotFound      = "duel_not_found"
	ErrCodeAlreadyReconciled = "duel_already_reconciled"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
