package models

import (
	"time"

	"gorm.io/datatypes"
)

// EventType tags an audit event recorded against a job.
type EventType string

const (
	EventJobCreated           EventType = "JobCreated"
	EventStaffApproved        EventType = "StaffApproved"
	EventApprovalEmailSent    EventType = "ApprovalEmailSent"
	EventApprovalEmailFailed  EventType = "ApprovalEmailFailed"
	EventStaffRejected        EventType = "StaffRejected"
	EventJobReviewed          EventType = "JobReviewed"
	EventJobReviewCleared     EventType = "JobReviewCleared"
	EventStudentConfirmed     EventType = "StudentConfirmed"
	EventJobMarkedPrinting    EventType = "JobMarkedPrinting"
	EventJobMarkedComplete    EventType = "JobMarkedComplete"
	EventJobMarkedPickedUp    EventType = "JobMarkedPickedUp"
	EventPaymentRecorded      EventType = "PaymentRecorded"
	EventJobNotesUpdated      EventType = "JobNotesUpdated"
	EventConfirmationResent   EventType = "ConfirmationResent"
	EventFileRelocationFailed EventType = "FileRelocationFailed"
	EventStorageOrphanDeleted EventType = "StorageOrphanDeleted"
	EventStorageStaleDeleted  EventType = "StorageStaleDeleted"
)

// Event is an immutable audit record of one state-changing action on a job.
type Event struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	JobID         string            `gorm:"size:32;not null;index" json:"job_id"`
	Timestamp     time.Time         `gorm:"not null;index" json:"timestamp"`
	EventType     EventType         `gorm:"size:50;not null" json:"event_type"`
	Details       datatypes.JSONMap `gorm:"type:json" json:"details"`
	TriggeredBy   string            `gorm:"size:100;not null" json:"triggered_by"`
	WorkstationID string            `gorm:"size:100;not null" json:"workstation_id"`
}
