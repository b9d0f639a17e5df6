package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure: bad signature,
// unexpected algorithm, malformed payload and expiry look the same to callers.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of both token kinds. Role is empty on refresh tokens.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed JWT and its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenService signs and verifies HS256 tokens. Access and refresh tokens
// use different secrets, so one can never be accepted as the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueAccessToken signs {sub, role, jti, iat, exp} with the access secret.
func (s *TokenService) IssueAccessToken(subject, role string) (IssuedToken, error) {
	return s.sign(s.accessSecret, subject, role, s.accessTTL)
}

// IssueRefreshToken signs {sub, jti, iat, exp} with the refresh secret.
func (s *TokenService) IssueRefreshToken(subject string) (IssuedToken, error) {
	return s.sign(s.refreshSecret, subject, "", s.refreshTTL)
}

func (s *TokenService) VerifyAccessToken(raw string) (*Claims, error) {
	return s.verify(s.accessSecret, raw)
}

func (s *TokenService) VerifyRefreshToken(raw string) (*Claims, error) {
	return s.verify(s.refreshSecret, raw)
}

func (s *TokenService) sign(secret []byte, subject, role string, ttl time.Duration) (IssuedToken, error) {
	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

func (s *TokenService) verify(secret []byte, raw string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
