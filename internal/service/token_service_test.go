package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestTokenService(now *time.Time) *tokenService {
	svc := NewTokenService("confirm-secret", 0).(*tokenService)
	svc.now = func() time.Time { return *now }
	return svc
}

func TestTokenRoundTripReturnsJobID(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestTokenService(&now)

	token, err := svc.Issue("3f2a9c")
	require.NoError(t, err)

	jobID, err := svc.Verify(token, 0)
	require.NoError(t, err)
	require.Equal(t, "3f2a9c", jobID)
	require.Equal(t, DefaultConfirmationMaxAge, svc.MaxAge())
}

func TestTokenExpiresAfterMaxAge(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestTokenService(&now)

	token, err := svc.Issue("job-1")
	require.NoError(t, err)

	now = now.Add(72*time.Hour - time.Minute)
	_, err = svc.Verify(token, 0)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	jobID, err := svc.Verify(token, 0)
	require.True(t, errors.Is(err, ErrTokenExpired))
	require.Equal(t, "job-1", jobID)
}

func TestTamperedTokenIsInvalidNeverExpired(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestTokenService(&now)

	token, err := svc.Issue("job-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	now = now.Add(100 * time.Hour)
	_, err = svc.Verify(tampered, 0)
	require.True(t, errors.Is(err, ErrTokenInvalid))

	_, err = svc.Verify("not-a-token", 0)
	require.True(t, errors.Is(err, ErrTokenInvalid))
	_, err = svc.Verify("", 0)
	require.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestTokenFromOtherSecretIsInvalid(t *testing.T) {
	now := time.Now()
	svc := newTestTokenService(&now)
	other := NewTokenService("another-secret", 0)

	token, err := other.Issue("job-9")
	require.NoError(t, err)

	_, err = svc.Verify(token, 0)
	require.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestIssueRequiresJobID(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	_, err := svc.Issue("  ")
	require.True(t, errors.Is(err, ErrValidation))
}
