package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/repository"
)

// DefaultStaff seeds an empty directory.
var DefaultStaff = []models.Staff{
	{Name: "John Doe", IsActive: true},
	{Name: "Jane Smith", IsActive: true},
	{Name: "Peter Jones", IsActive: false},
}

// StaffService manages the staff directory and authorizes actors.
type StaffService interface {
	List(ctx context.Context, includeInactive bool) ([]dto.StaffResponse, error)
	Add(ctx context.Context, req dto.StaffCreateRequest) (dto.StaffResponse, error)
	SetActive(ctx context.Context, name string, req dto.StaffUpdateRequest) (dto.StaffResponse, error)
	RequireActive(ctx context.Context, name string) (models.Staff, error)
	Seed(ctx context.Context) (int, error)
}

type staffService struct {
	repo      repository.StaffRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStaffService constructs the staff service.
func NewStaffService(repo repository.StaffRepository, validate *validator.Validate, logger zerolog.Logger) StaffService {
	return &staffService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "staff_service").Logger(),
		now:       time.Now,
	}
}

func (s *staffService) List(ctx context.Context, includeInactive bool) ([]dto.StaffResponse, error) {
	staff, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StaffResponse, 0, len(staff))
	for _, member := range staff {
		items = append(items, dto.NewStaffResponse(member))
	}
	return items, nil
}

func (s *staffService) Add(ctx context.Context, req dto.StaffCreateRequest) (dto.StaffResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return dto.StaffResponse{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	member := models.Staff{Name: req.Name, IsActive: true, AddedAt: s.now().UTC()}
	if err := s.repo.Create(ctx, &member); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return dto.StaffResponse{}, ErrStaffExists
		}
		return dto.StaffResponse{}, err
	}

	s.logger.Info().Str("staff_name", member.Name).Msg("staff member added")
	return dto.NewStaffResponse(member), nil
}

func (s *staffService) SetActive(ctx context.Context, name string, req dto.StaffUpdateRequest) (dto.StaffResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StaffResponse{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	member, err := s.repo.Get(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StaffResponse{}, ErrStaffNotFound
		}
		return dto.StaffResponse{}, err
	}

	member.IsActive = *req.IsActive
	if member.IsActive {
		member.DeactivatedAt = nil
	} else if member.DeactivatedAt == nil {
		now := s.now().UTC()
		member.DeactivatedAt = &now
	}

	if err := s.repo.Save(ctx, &member); err != nil {
		return dto.StaffResponse{}, err
	}
	return dto.NewStaffResponse(member), nil
}

// RequireActive returns the staff member only if it exists and is active.
func (s *staffService) RequireActive(ctx context.Context, name string) (models.Staff, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Staff{}, ErrUnauthorizedActor
	}
	member, err := s.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Staff{}, ErrUnauthorizedActor
		}
		return models.Staff{}, err
	}
	if !member.IsActive {
		return models.Staff{}, ErrUnauthorizedActor
	}
	return member, nil
}

// Seed inserts DefaultStaff when the directory is empty and reports how many were added.
func (s *staffService) Seed(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	now := s.now().UTC()
	for _, seed := range DefaultStaff {
		member := seed
		member.AddedAt = now
		if !member.IsActive {
			member.DeactivatedAt = &now
		}
		if err := s.repo.Create(ctx, &member); err != nil {
			return 0, err
		}
	}
	s.logger.Info().Int("count", len(DefaultStaff)).Msg("seeded staff directory")
	return len(DefaultStaff), nil
}
