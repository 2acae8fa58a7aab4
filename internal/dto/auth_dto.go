package dto

import "time"

// LoginRequest carries workstation credentials.
type LoginRequest struct {
	WorkstationID string `json:"workstation_id" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

// LoginResponse returns the workstation bearer token.
type LoginResponse struct {
	Token         string    `json:"token"`
	WorkstationID string    `json:"workstation_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}
