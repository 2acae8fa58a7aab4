package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/dto"
)

// DefaultWorkstationTokenTTL bounds a workstation session.
const DefaultWorkstationTokenTTL = 12 * time.Hour

// AuthService authenticates lab workstations.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
}

type authService struct {
	workstations map[string]string
	secret       []byte
	ttl          time.Duration
	validator    *validator.Validate
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAuthService constructs the workstation login service.
func NewAuthService(workstations map[string]string, secret string, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = DefaultWorkstationTokenTTL
	}
	return &authService{
		workstations: workstations,
		secret:       []byte(secret),
		ttl:          ttl,
		validator:    validate,
		logger:       logger.With().Str("component", "auth_service").Logger(),
		now:          time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	req.WorkstationID = strings.TrimSpace(req.WorkstationID)
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	expected, ok := s.workstations[req.WorkstationID]
	if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(req.Password)) != 1 {
		s.logger.Warn().Str("workstation_id", req.WorkstationID).Msg("workstation login failed")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":            req.WorkstationID,
		"workstation_id": req.WorkstationID,
		"iat":            now.Unix(),
		"exp":            expires.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{Token: token, WorkstationID: req.WorkstationID, ExpiresAt: expires}, nil
}
