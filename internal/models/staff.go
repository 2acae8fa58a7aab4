package models

import "time"

// Staff is a lab staff member that can be cited as the actor of a job action.
type Staff struct {
	Name          string     `gorm:"primaryKey;size:100" json:"name"`
	IsActive      bool       `gorm:"not null" json:"is_active"`
	AddedAt       time.Time  `gorm:"autoCreateTime" json:"added_at"`
	DeactivatedAt *time.Time `json:"deactivated_at"`
}

// TableName keeps the directory table singular.
func (Staff) TableName() string {
	return "staff"
}
