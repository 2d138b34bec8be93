package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/formify-dev/formify/pkg/events"
	pkghash "github.com/formify-dev/formify/pkg/hash"
	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/services/iam/internal/models"
	"github.com/formify-dev/formify/services/iam/internal/otp"
	"github.com/formify-dev/formify/services/iam/internal/repo"
	"github.com/formify-dev/formify/services/iam/internal/session"
	"github.com/formify-dev/formify/services/iam/internal/token"
)

const pendingRegistrationVersion = 1

// pendingRegistration is the blob parked in the session store between the two
// registration steps. The password is hashed before it is stored; the
// plaintext never leaves the first request.
type pendingRegistration struct {
	Version      int    `json:"v"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"password_hash"`
}

type AuthService struct {
	Repo       *repo.GormRepo
	OTP        *otp.Engine
	Tokens     *token.Engine
	Store      *session.Store
	Producer   *events.Producer
	PendingTTL time.Duration
	ResetTTL   time.Duration
}

// RegisterStart parks the registration payload and dispatches an OTP. No
// durable user row exists until the OTP is verified.
func (s *AuthService) RegisterStart(ctx context.Context, email, password, fullName string) error {
	l := logging.FromContext(ctx).With("svc", "auth.register_start")
	email = repo.NormalizeEmail(email)

	if _, err := s.Repo.FindByEmail(ctx, email); err == nil {
		l.Warn("register_start_failed", "status", 409, "reason", "email_taken")
		return ErrEmailTaken
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		return err
	}

	pwHash, err := pkghash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	blob, err := json.Marshal(pendingRegistration{
		Version:      pendingRegistrationVersion,
		Email:        email,
		FullName:     fullName,
		PasswordHash: pwHash,
	})
	if err != nil {
		return fmt.Errorf("marshal pending registration: %w", err)
	}

	if err := s.Store.Set(ctx, session.PendingUserPrefix+email, string(blob), s.PendingTTL); err != nil {
		return err
	}

	if err := s.OTP.Issue(ctx, email); err != nil {
		return err
	}

	l.Info("register_start_success")
	return nil
}

// RegisterComplete verifies the OTP, materializes the pending registration
// into a durable verified user and deletes the blob.
func (s *AuthService) RegisterComplete(ctx context.Context, email, code string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register_complete")
	email = repo.NormalizeEmail(email)

	if err := s.OTP.Verify(ctx, email, code); err != nil {
		l.Warn("register_complete_failed", "status", 400, "reason", "otp_verify")
		return nil, err
	}

	raw, ok, err := s.Store.Get(ctx, session.PendingUserPrefix+email)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.Warn("register_complete_failed", "status", 400, "reason", "registration_window_lapsed")
		return nil, ErrSessionExpired
	}

	var pending pendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, fmt.Errorf("decode pending registration: %w", err)
	}
	if pending.Version != pendingRegistrationVersion {
		return nil, fmt.Errorf("decode pending registration: unsupported version %d", pending.Version)
	}

	user := models.User{
		Email:        pending.Email,
		FullName:     pending.FullName,
		PasswordHash: pending.PasswordHash,
		Role:         models.RoleCreator,
		Status:       models.StatusActive,
		IsVerified:   true,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.Store.Delete(ctx, session.PendingUserPrefix+email); err != nil {
		l.Warn("register_complete_cleanup_failed", "error", err)
	}

	s.publish(ctx, "user_events", user.ID.String(), map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
	})

	l.Info("register_complete_success")
	return &user, nil
}

// RegisterResend reissues the OTP for a pending registration, honoring the
// cooldown implied by the active challenge's TTL.
func (s *AuthService) RegisterResend(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.register_resend")
	email = repo.NormalizeEmail(email)

	exists, err := s.Store.Exists(ctx, session.PendingUserPrefix+email)
	if err != nil {
		return err
	}
	if !exists {
		l.Warn("register_resend_failed", "status", 400, "reason", "no_pending_registration")
		return ErrNoPendingRegistration
	}

	wait, active, err := s.OTP.Cooldown(ctx, email)
	if err != nil {
		return err
	}
	if active {
		l.Warn("register_resend_failed", "status", 429, "reason", "cooldown")
		return &CooldownError{RetryAfter: wait}
	}

	return s.OTP.Issue(ctx, email)
}

// Login authenticates the user and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *token.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")
	email = repo.NormalizeEmail(email)

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("login_failed", "status", 404, "reason", "user_not_found")
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	if !user.IsVerified {
		l.Warn("login_failed", "status", 403, "reason", "not_verified")
		return nil, nil, ErrNotVerified
	}

	if !pkghash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "bad_password")
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.Repo.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	user.LastLogin = &now

	pair, err := s.Tokens.IssuePair(user.ID.String(), user.Role)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, "user_events", user.ID.String(), map[string]any{
		"type":    "user_logged_in",
		"user_id": user.ID,
	})

	l.Info("login_success")
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is denylisted before a
// new pair is issued, so each refresh token is single-use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.DecodeRefresh(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "decode")
		return nil, err
	}

	if err := s.Tokens.ConsumeRefresh(ctx, claims); err != nil {
		if errors.Is(err, token.ErrTokenRevoked) {
			l.Warn("refresh_failed", "status", 401, "reason", "reuse_detected")
		}
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrNotFound
	}
	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	pair, err := s.Tokens.IssuePair(user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}

	l.Info("refresh_success")
	return pair, nil
}

// Logout denylists the presented refresh token. A second logout with the same
// token fails with a revocation error rather than crashing.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Tokens.DecodeRefresh(refreshToken)
	if err != nil {
		l.Warn("logout_failed", "status", 401, "reason", "decode")
		return err
	}

	if err := s.Tokens.ConsumeRefresh(ctx, claims); err != nil {
		return err
	}

	l.Info("logout_success")
	return nil
}

// CurrentUser resolves an access token to its user. The per-user revocation
// watermark is honored so tokens minted before a password reset stop working.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.Tokens.DecodeAccess(accessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.Tokens.IsAccessRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, token.ErrTokenRevoked
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrNotFound
	}
	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before swapping in the new
// hash. All outstanding tokens are revoked; the caller must log in again.
func (s *AuthService) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	user, err := s.CurrentUser(ctx, accessToken)
	if err != nil {
		return err
	}

	if !pkghash.CheckPassword(user.PasswordHash, oldPassword) {
		l.Warn("change_password_failed", "status", 401, "reason", "bad_password")
		return ErrInvalidCredentials
	}

	newHash, err := pkghash.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Repo.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return err
	}

	if err := s.Tokens.RevokeAllForUser(ctx, user.ID.String()); err != nil {
		return err
	}

	s.publish(ctx, "user_events", user.ID.String(), map[string]any{
		"type":    "password_changed",
		"user_id": user.ID,
	})

	l.Info("change_password_success")
	return nil
}

// publish is fire-and-forget: event transport failures are logged, never
// surfaced to the caller.
func (s *AuthService) publish(ctx context.Context, topic, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "error", err)
	}
}
