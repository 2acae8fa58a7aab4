package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// PaymentRepository stores the one payment a completed job may receive.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByJob(ctx context.Context, jobID string) (models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository constructs the payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *paymentRepository) GetByJob(ctx context.Context, jobID string) (models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "job_id = ?", jobID).Error
	return payment, err
}
