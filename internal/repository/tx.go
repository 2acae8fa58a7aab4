package repository

import (
	"context"

	"gorm.io/gorm"
)

// Tx groups repositories bound to one database transaction.
type Tx struct {
	Jobs     JobRepository
	Events   EventRepository
	Payments PaymentRepository
}

// TxManager runs work inside a database transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(tx Tx) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager constructs a transaction manager over db.
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (m *gormTxManager) WithinTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return m.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(Tx{
			Jobs:     NewJobRepository(db),
			Events:   NewEventRepository(db),
			Payments: NewPaymentRepository(db),
		})
	})
}
