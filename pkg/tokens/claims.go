package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrWrongTokenType = errors.New("wrong token type")
)

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived, single-use refresh token.
// ID (jti) is the revocation key; IssuedAt is compared against the per-user
// revocation watermark.
type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func NewJTI() string { return uuid.NewString() }

func registered(userID string, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   userID,
		ID:        NewJTI(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}
