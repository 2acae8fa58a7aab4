package service

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	confirmationAudience = "job-confirmation"
	// DefaultConfirmationMaxAge is how long a confirmation link stays valid.
	DefaultConfirmationMaxAge = 72 * time.Hour
)

// TokenService issues and verifies the signed links students use to confirm a quote.
type TokenService interface {
	Issue(jobID string) (string, error)
	Verify(token string, maxAge time.Duration) (string, error)
	MaxAge() time.Duration
}

type tokenService struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewTokenService constructs an HMAC backed confirmation token service.
func NewTokenService(secret string, maxAge time.Duration) TokenService {
	if maxAge <= 0 {
		maxAge = DefaultConfirmationMaxAge
	}
	return &tokenService{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (s *tokenService) MaxAge() time.Duration {
	return s.maxAge
}

func (s *tokenService) Issue(jobID string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", validationError("job_id", "is required")
	}
	claims := jwt.RegisteredClaims{
		Subject:  jobID,
		Audience: jwt.ClaimStrings{confirmationAudience},
		IssuedAt: jwt.NewNumericDate(s.now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the job id bound to token. A correctly signed token older
// than maxAge returns the job id together with ErrTokenExpired so callers can
// flag the job; every other failure is ErrTokenInvalid.
func (s *tokenService) Verify(token string, maxAge time.Duration) (string, error) {
	if maxAge <= 0 {
		maxAge = s.maxAge
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenInvalid
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(confirmationAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return "", ErrTokenInvalid
	}

	if s.now().Sub(claims.IssuedAt.Time) > maxAge {
		return claims.Subject, ErrTokenExpired
	}
	return claims.Subject, nil
}
