package models

import "time"

// Payment records the manual settlement of a completed job. One per job, never modified.
type Payment struct {
	JobID       string    `gorm:"primaryKey;size:32" json:"job_id"`
	Grams       float64   `gorm:"not null" json:"grams"`
	PriceCents  int64     `gorm:"not null" json:"price_cents"`
	TxnNo       string    `gorm:"size:50;not null" json:"txn_no"`
	PickedUpBy  string    `gorm:"size:100;not null" json:"picked_up_by"`
	PaidAt      time.Time `gorm:"not null" json:"paid_ts"`
	PaidByStaff string    `gorm:"size:100;not null" json:"paid_by_staff"`
}

// PriceUSD returns the charged price in dollars.
func (p Payment) PriceUSD() float64 {
	return float64(p.PriceCents) / 100
}
