package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/pkg/tokens"
	"github.com/formify-dev/formify/services/iam/internal/otp"
	"github.com/formify-dev/formify/services/iam/internal/service"
	"github.com/formify-dev/formify/services/iam/internal/session"
	"github.com/formify-dev/formify/services/iam/internal/token"
	"github.com/formify-dev/formify/services/iam/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

// httpError translates the service error taxonomy into status codes. Secrets
// never flow through here: messages are generic on purpose.
func httpError(err error) *echo.HTTPError {
	var cooldown *service.CooldownError
	if errors.As(err, &cooldown) {
		he := echo.NewHTTPError(http.StatusTooManyRequests, "OTP already sent, wait before requesting again")
		he.SetInternal(err)
		return he
	}

	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrNotVerified):
		return echo.NewHTTPError(http.StatusForbidden, "user is not verified")
	case errors.Is(err, service.ErrNoPendingRegistration):
		return echo.NewHTTPError(http.StatusBadRequest, "no pending registration for this email")
	case errors.Is(err, service.ErrSessionExpired):
		return echo.NewHTTPError(http.StatusForbidden, "session expired, start over")
	case errors.Is(err, otp.ErrInvalidOTP):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired OTP")
	case errors.Is(err, otp.ErrTooManyAttempts):
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, request a new code")
	case errors.Is(err, token.ErrTokenRevoked):
		return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
	case errors.Is(err, tokens.ErrTokenExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
	case errors.Is(err, tokens.ErrWrongTokenType),
		errors.Is(err, tokens.ErrTokenMalformed):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	case errors.Is(err, session.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func retryAfter(err error) (int, bool) {
	var cooldown *service.CooldownError
	if errors.As(err, &cooldown) {
		return int(cooldown.RetryAfter.Seconds()), true
	}
	return 0, false
}

func (h *AuthHTTP) RegisterStart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register_start")

	var req transport.RegisterStartRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("register_start_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.RegisterStart(ctx, req.Email, req.Password, req.FullName); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "OTP sent to email",
	})
}

func (h *AuthHTTP) RegisterComplete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register_complete")

	var req transport.RegisterCompleteRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("register_complete_error", "status", 400, "error", err)
		return err
	}

	user, err := h.Svc.RegisterComplete(ctx, req.Email, req.OTP)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"verified": true,
		"user":     user,
	})
}

func (h *AuthHTTP) RegisterResend(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register_resend")

	var req transport.ResendRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("register_resend_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.RegisterResend(ctx, req.Email); err != nil {
		if secs, ok := retryAfter(err); ok {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"success":     false,
				"message":     "OTP already sent, wait before requesting again",
				"retry_after": secs,
			})
		}
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "OTP resent",
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return err
	}

	_, pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, pairResponse(pair))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return err
	}

	pair, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, pairResponse(pair))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req transport.LogoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("logout_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_me")

	tokenStr, ok := bearerToken(c)
	if !ok {
		l.Warn("me_error", "status", 401, "reason", "missing_bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	user, err := h.Svc.CurrentUser(ctx, tokenStr)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_change_password")

	tokenStr, ok := bearerToken(c)
	if !ok {
		l.Warn("change_password_error", "status", 401, "reason", "missing_bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var req transport.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("change_password_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.ChangePassword(ctx, tokenStr, req.OldPassword, req.NewPassword); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "password changed, log in again",
	})
}

func (h *AuthHTTP) ResetStart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_start")

	var req transport.ResetStartRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("reset_start_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.ResetStart(ctx, req.Email); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "if the email exists, an OTP was sent",
	})
}

func (h *AuthHTTP) ResetVerify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_verify")

	var req transport.ResetVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("reset_verify_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.ResetVerify(ctx, req.Email, req.OTP); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "OTP verified",
	})
}

func (h *AuthHTTP) ResetComplete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_complete")

	var req transport.ResetCompleteRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("reset_complete_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.ResetComplete(ctx, req.Email, req.NewPassword); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "password reset successful",
	})
}

func (h *AuthHTTP) ResetResend(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_resend")

	var req transport.ResendRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("reset_resend_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.ResetResend(ctx, req.Email); err != nil {
		if secs, ok := retryAfter(err); ok {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"success":     false,
				"message":     "OTP already sent, wait before requesting again",
				"retry_after": secs,
			})
		}
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "OTP resent",
	})
}

func pairResponse(pair *token.Pair) transport.TokenPairResponse {
	return transport.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		AccessExp:    pair.AccessExp,
		RefreshExp:   pair.RefreshExp,
	}
}

func bearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	tokenStr := strings.TrimSpace(auth[len(prefix):])
	return tokenStr, tokenStr != ""
}
