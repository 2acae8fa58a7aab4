package dto

import (
	"time"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// StaffResponse describes a staff directory entry.
type StaffResponse struct {
	Name          string     `json:"name"`
	IsActive      bool       `json:"is_active"`
	AddedAt       time.Time  `json:"added_at"`
	DeactivatedAt *time.Time `json:"deactivated_at"`
}

// NewStaffResponse maps the staff model.
func NewStaffResponse(staff models.Staff) StaffResponse {
	return StaffResponse{
		Name:          staff.Name,
		IsActive:      staff.IsActive,
		AddedAt:       staff.AddedAt,
		DeactivatedAt: staff.DeactivatedAt,
	}
}

// StaffCreateRequest adds a staff member.
type StaffCreateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// StaffUpdateRequest toggles a staff member's active flag.
type StaffUpdateRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
