package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/pkg/mail"
	"github.com/formify-dev/formify/services/iam/internal/session"
)

const codeLength = 6

var (
	ErrInvalidOTP      = errors.New("invalid or expired otp")
	ErrTooManyAttempts = errors.New("too many otp attempts")
)

// Engine issues and verifies one-time numeric codes bound to an email
// address. Codes live in the session store under otp:{email}; one active
// challenge per email, reissue overwrites.
type Engine struct {
	Store       *session.Store
	Mailer      mail.Sender
	TTL         time.Duration
	MaxAttempts int
}

func NewEngine(store *session.Store, mailer mail.Sender, ttl time.Duration, maxAttempts int) *Engine {
	return &Engine{Store: store, Mailer: mailer, TTL: ttl, MaxAttempts: maxAttempts}
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}

// Issue stores a fresh code and mails it. The code is stored before the mail
// goes out: a delivery failure surfaces as an error but leaves a usable
// challenge behind, so a retried send does not invalidate anything.
func (e *Engine) Issue(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "otp.issue")

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := e.Store.SetCode(ctx, session.OTPPrefix+email, code, e.TTL); err != nil {
		return err
	}

	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is: %s\nIt expires in %d minutes.", code, int(e.TTL.Minutes()))
	if err := e.Mailer.Send(ctx, email, subject, body); err != nil {
		l.Error("otp_send_failed", "reason", "mail transport", "error", err)
		return fmt.Errorf("send otp mail: %w", err)
	}

	l.Info("otp_sent")
	return nil
}

// Verify consumes the stored code on match. A mismatch leaves the challenge
// in place until the attempt budget runs out; exceeding it burns the
// challenge entirely.
func (e *Engine) Verify(ctx context.Context, email, candidate string) error {
	res, err := e.Store.ConsumeCode(ctx, session.OTPPrefix+email, candidate, e.MaxAttempts)
	if err != nil {
		return err
	}
	switch res {
	case session.ConsumeOK:
		return nil
	case session.ConsumeAttemptsExceeded:
		return ErrTooManyAttempts
	default:
		return ErrInvalidOTP
	}
}

// Cooldown reports how long the caller must wait before a resend is allowed.
// active is false when no challenge exists.
func (e *Engine) Cooldown(ctx context.Context, email string) (time.Duration, bool, error) {
	return e.Store.TTL(ctx, session.OTPPrefix+email)
}
