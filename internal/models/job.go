package models

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus is the lifecycle state of a print job.
type JobStatus string

const (
	JobStatusUploaded     JobStatus = "UPLOADED"
	JobStatusPending      JobStatus = "PENDING"
	JobStatusReadyToPrint JobStatus = "READYTOPRINT"
	JobStatusPrinting     JobStatus = "PRINTING"
	JobStatusCompleted    JobStatus = "COMPLETED"
	JobStatusPaidPickedUp JobStatus = "PAIDPICKEDUP"
	JobStatusRejected     JobStatus = "REJECTED"
)

// ActiveJobStatuses are the statuses in which a job blocks a duplicate submission.
var ActiveJobStatuses = []JobStatus{JobStatusUploaded, JobStatusPending, JobStatusReadyToPrint}

// StatusDirectories maps every status that owns a storage directory to that directory name.
var StatusDirectories = map[JobStatus]string{
	JobStatusUploaded:     "Uploaded",
	JobStatusPending:      "Pending",
	JobStatusReadyToPrint: "ReadyToPrint",
	JobStatusPrinting:     "Printing",
	JobStatusCompleted:    "Completed",
	JobStatusPaidPickedUp: "PaidPickedUp",
}

// Valid reports whether the status is one of the seven known values.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusUploaded, JobStatusPending, JobStatusReadyToPrint, JobStatusPrinting,
		JobStatusCompleted, JobStatusPaidPickedUp, JobStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusRejected || s == JobStatusPaidPickedUp
}

// Directory returns the storage directory a job in this status is expected to live in.
// Rejected jobs never move, so they stay in the upload directory.
func (s JobStatus) Directory() string {
	if dir, ok := StatusDirectories[s]; ok {
		return dir
	}
	return StatusDirectories[JobStatusUploaded]
}

// Job represents one student print request tracked through the queue.
type Job struct {
	ID               string  `gorm:"primaryKey;size:32" json:"id"`
	ShortID          *string `gorm:"size:12;uniqueIndex" json:"short_id"`
	StudentName      string  `gorm:"size:100;not null" json:"student_name"`
	StudentEmail     string  `gorm:"size:100;not null;index" json:"student_email"`
	Discipline       string  `gorm:"size:50;not null" json:"discipline"`
	ClassNumber      string  `gorm:"size:50;not null" json:"class_number"`
	OriginalFilename string  `gorm:"size:256;not null" json:"original_filename"`
	DisplayName      string  `gorm:"size:256;not null" json:"display_name"`
	FilePath         string  `gorm:"size:512;not null" json:"file_path"`
	MetadataPath     string  `gorm:"size:512;not null" json:"metadata_path"`
	FileHash         string  `gorm:"size:64;index" json:"file_hash"`

	Status    JobStatus `gorm:"size:50;not null;default:UPLOADED;index" json:"status"`
	Printer   string    `gorm:"size:64;not null" json:"printer"`
	Color     string    `gorm:"size:32;not null" json:"color"`
	Material  string    `gorm:"size:32;not null" json:"material"`
	WeightG   *float64  `json:"weight_g"`
	TimeHours *float64  `json:"time_hours"`
	CostCents *int64    `json:"cost_cents"`

	AcknowledgedMinimumCharge bool       `gorm:"not null;default:false" json:"acknowledged_minimum_charge"`
	StudentConfirmed          bool       `gorm:"not null;default:false" json:"student_confirmed"`
	StudentConfirmedAt        *time.Time `json:"student_confirmed_at"`
	ConfirmToken              *string    `gorm:"size:512;uniqueIndex" json:"-"`
	ConfirmTokenExpires       *time.Time `json:"confirm_token_expires"`
	IsConfirmationExpired     bool       `gorm:"not null;default:false" json:"is_confirmation_expired"`
	ConfirmationLastSentAt    *time.Time `json:"confirmation_last_sent_at"`

	RejectReasons datatypes.JSONSlice[string] `json:"reject_reasons"`
	StaffViewedAt *time.Time                  `json:"staff_viewed_at"`
	LastUpdatedBy *string                     `gorm:"size:100" json:"last_updated_by"`
	Notes         string                      `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Payment *Payment `gorm:"foreignKey:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"payment,omitempty"`
	Events  []Event  `gorm:"foreignKey:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"events,omitempty"`
}

// CostUSD returns the computed cost in dollars, if any.
func (j Job) CostUSD() *float64 {
	if j.CostCents == nil {
		return nil
	}
	value := float64(*j.CostCents) / 100
	return &value
}

// Deletable reports whether the job may be hard deleted.
func (j Job) Deletable() bool {
	return j.Status == JobStatusUploaded || j.Status == JobStatusPending
}
