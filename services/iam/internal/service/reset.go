package service

import (
	"context"
	"errors"
	"fmt"

	pkghash "github.com/formify-dev/formify/pkg/hash"
	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/services/iam/internal/repo"
	"github.com/formify-dev/formify/services/iam/internal/session"
)

// ResetStart always reports success so callers cannot probe which emails have
// accounts; an OTP is dispatched only when the user actually exists.
func (s *AuthService) ResetStart(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_start")
	email = repo.NormalizeEmail(email)

	if _, err := s.Repo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Info("reset_start_noop")
			return nil
		}
		return err
	}

	if err := s.OTP.Issue(ctx, email); err != nil {
		return err
	}

	l.Info("reset_start_success")
	return nil
}

// ResetVerify consumes the OTP and opens a reset session authorizing exactly
// one password change.
func (s *AuthService) ResetVerify(ctx context.Context, email, code string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_verify")
	email = repo.NormalizeEmail(email)

	if err := s.OTP.Verify(ctx, email, code); err != nil {
		l.Warn("reset_verify_failed", "status", 400, "reason", "otp_verify")
		return err
	}

	if err := s.Store.Set(ctx, session.ResetSessionPrefix+email, "1", s.ResetTTL); err != nil {
		return err
	}

	l.Info("reset_verify_success")
	return nil
}

// ResetComplete changes the password and revokes every outstanding refresh
// token of the user, then closes the reset session.
func (s *AuthService) ResetComplete(ctx context.Context, email, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_complete")
	email = repo.NormalizeEmail(email)

	exists, err := s.Store.Exists(ctx, session.ResetSessionPrefix+email)
	if err != nil {
		return err
	}
	if !exists {
		l.Warn("reset_complete_failed", "status", 403, "reason", "session_expired")
		return ErrSessionExpired
	}

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}

	pwHash, err := pkghash.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Repo.UpdatePassword(ctx, user.ID, pwHash); err != nil {
		return err
	}

	if err := s.Tokens.RevokeAllForUser(ctx, user.ID.String()); err != nil {
		return err
	}

	if err := s.Store.Delete(ctx, session.ResetSessionPrefix+email); err != nil {
		l.Warn("reset_complete_cleanup_failed", "error", err)
	}

	s.publish(ctx, "user_events", user.ID.String(), map[string]any{
		"type":    "password_reset",
		"user_id": user.ID,
	})

	l.Info("reset_complete_success")
	return nil
}

// ResetResend reissues the reset OTP under the same cooldown rules as
// registration resends, with the same existence-hiding as ResetStart.
func (s *AuthService) ResetResend(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_resend")
	email = repo.NormalizeEmail(email)

	wait, active, err := s.OTP.Cooldown(ctx, email)
	if err != nil {
		return err
	}
	if active {
		l.Warn("reset_resend_failed", "status", 429, "reason", "cooldown")
		return &CooldownError{RetryAfter: wait}
	}

	return s.ResetStart(ctx, email)
}
