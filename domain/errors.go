package domain

import (
	"errors"
	"fmt"
	"time"
)

// Authentication errors
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrBadCredentials     = errors.New("invalid credentials")
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrTwoFactorRequired  = errors.New("two-factor code required")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrStatusNotPermitted = errors.New("operation not permitted in current account status")
)

// Account blocked errors. Every one of them matches ErrAccountBlocked.
var (
	ErrAccountBlocked        = errors.New("account blocked")
	ErrAccountLocked         = fmt.Errorf("%w: locked", ErrAccountBlocked)
	ErrPasswordResetRequired = fmt.Errorf("%w: password reset required", ErrAccountBlocked)
	ErrAccountInactive       = fmt.Errorf("%w: inactive", ErrAccountBlocked)
	ErrAccountSuspended      = fmt.Errorf("%w: suspended", ErrAccountBlocked)
	ErrAccountWithdrawn      = fmt.Errorf("%w: withdrawn", ErrAccountBlocked)
	ErrAccountDeleted        = fmt.Errorf("%w: deleted", ErrAccountBlocked)
)

// Token errors. Every one of them matches ErrUnauthenticated.
var (
	ErrTokenInvalid        = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTokenExpired        = fmt.Errorf("%w: token has expired", ErrUnauthenticated)
	ErrTokenRevoked        = fmt.Errorf("%w: token has been revoked", ErrUnauthenticated)
	ErrRefreshTokenInvalid = fmt.Errorf("%w: refresh token invalid or expired", ErrUnauthenticated)
)

// Two-factor errors
var (
	ErrRateLimited        = errors.New("rate limited")
	ErrChallengeNotFound  = errors.New("no pending two-factor challenge")
	ErrChallengeExpired   = errors.New("two-factor challenge expired")
	ErrChallengeExhausted = errors.New("two-factor challenge retry limit reached")
	ErrChallengeMismatch  = errors.New("two-factor code mismatch")
)

// Authorization errors
var (
	ErrAccessDenied   = errors.New("access denied")
	ErrEntityNotFound = errors.New("resource not found")
	ErrUnknownEntity  = errors.New("unknown entity kind")
)

// RateLimitedError carries how long the caller has to wait
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter.Round(time.Second))
}

// Is makes errors.Is(err, ErrRateLimited) hold
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// StatusError maps a non-active status to its blocking error
func StatusError(s AccountStatus) error {
	switch s {
	case StatusActive:
		return nil
	case StatusLocked:
		return ErrAccountLocked
	case StatusPasswordReset:
		return ErrPasswordResetRequired
	case StatusInactive:
		return ErrAccountInactive
	case StatusSuspended:
		return ErrAccountSuspended
	case StatusWithdrawn:
		return ErrAccountWithdrawn
	case StatusDeleted:
		return ErrAccountDeleted
	default:
		return ErrAccountBlocked
	}
}
