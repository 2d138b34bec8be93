package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmailTaken            = errors.New("email already registered")
	ErrNotFound              = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrNotVerified           = errors.New("user is not verified")
	ErrNoPendingRegistration = errors.New("no pending registration for this email")
	ErrSessionExpired        = errors.New("session expired")
	ErrTooManyRequests       = errors.New("too many requests")
)

// CooldownError is returned when a resend is refused while a challenge is
// still active. It matches ErrTooManyRequests under errors.Is and carries the
// remaining wait.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("too many requests, retry in %ds", int(e.RetryAfter.Seconds()))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrTooManyRequests
}
