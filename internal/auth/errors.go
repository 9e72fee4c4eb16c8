package auth

import "errors"

// Login failures. Handlers present both as the same generic message.
var (
	ErrUserNotFound       = errors.New("user not found or disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Validation failures. Each rejection maps to exactly one of these; callers
// outside this package only see "unauthenticated".
var (
	ErrUnknownToken          = errors.New("unknown token")
	ErrRevokedToken          = errors.New("revoked token")
	ErrExpiredToken          = errors.New("expired token")
	ErrMalformedToken        = errors.New("malformed or forged token")
	ErrDisabledOrMissingUser = errors.New("disabled or missing user")
	ErrStoreUnavailable      = errors.New("store unavailable")
)

var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("user already exists")
)

// Reason names the taxonomy entry of err for structured logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUnknownToken):
		return "unknown_token"
	case errors.Is(err, ErrRevokedToken):
		return "revoked_token"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_or_forged_token"
	case errors.Is(err, ErrDisabledOrMissingUser):
		return "disabled_or_missing_user"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
