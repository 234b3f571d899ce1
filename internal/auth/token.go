package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mrlokans/houseprice/internal/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrMissingSecretKey = errors.New("token secret key is required")
	ErrUnsupportedAlg   = errors.New("unsupported token algorithm")
)

// Claims is the identity carried by an access token.
type Claims struct {
	Subject    string
	IdentityID uint
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// tokenClaims is the wire form: sub, id, iat, exp.
type tokenClaims struct {
	jwt.RegisteredClaims
	IdentityID uint `json:"id"`
}

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// TokenService issues and validates signed bearer tokens.
type TokenService struct {
	key    []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service from auth configuration.
func NewTokenService(cfg config.Auth, opts ...TokenOption) (*TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = "HS256"
	}
	method, ok := signingMethods[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlg, alg)
	}

	ttl := cfg.TokenExpiry
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	s := &TokenService{
		key:    []byte(cfg.SecretKey),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the default lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for claims that expires after ttl. A non-positive ttl
// uses the configured default.
func (s *TokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	// JWT dates have second precision.
	now := s.now().Truncate(time.Second)
	token := jwt.NewWithClaims(s.method, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		IdentityID: claims.IdentityID,
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of a token and returns its claims.
// Every failure is reported as ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{
		Subject:    claims.Subject,
		IdentityID: claims.IdentityID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != s.method.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return s.key, nil
}
