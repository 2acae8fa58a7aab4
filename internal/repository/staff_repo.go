package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// StaffRepository persists the lab staff directory.
type StaffRepository interface {
	List(ctx context.Context, includeInactive bool) ([]models.Staff, error)
	Get(ctx context.Context, name string) (models.Staff, error)
	Create(ctx context.Context, staff *models.Staff) error
	Save(ctx context.Context, staff *models.Staff) error
	Count(ctx context.Context) (int64, error)
}

type staffRepository struct {
	db *gorm.DB
}

// NewStaffRepository constructs the staff repository.
func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) List(ctx context.Context, includeInactive bool) ([]models.Staff, error) {
	query := r.db.WithContext(ctx).Model(&models.Staff{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var staff []models.Staff
	err := query.Order("name ASC").Find(&staff).Error
	return staff, err
}

func (r *staffRepository) Get(ctx context.Context, name string) (models.Staff, error) {
	var staff models.Staff
	err := r.db.WithContext(ctx).First(&staff, "name = ?", name).Error
	return staff, err
}

func (r *staffRepository) Create(ctx context.Context, staff *models.Staff) error {
	return translateError(r.db.WithContext(ctx).Create(staff).Error)
}

func (r *staffRepository) Save(ctx context.Context, staff *models.Staff) error {
	return r.db.WithContext(ctx).Save(staff).Error
}

func (r *staffRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Staff{}).Count(&count).Error
	return count, err
}
