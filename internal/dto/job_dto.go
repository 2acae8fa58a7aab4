package dto

import (
	"time"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// JobResponse is the staff facing view of a job.
type JobResponse struct {
	ID                        string           `json:"id"`
	ShortID                   string           `json:"short_id,omitempty"`
	StudentName               string           `json:"student_name"`
	StudentEmail              string           `json:"student_email"`
	Discipline                string           `json:"discipline"`
	ClassNumber               string           `json:"class_number"`
	OriginalFilename          string           `json:"original_filename"`
	DisplayName               string           `json:"display_name"`
	FilePath                  string           `json:"file_path"`
	MetadataPath              string           `json:"metadata_path"`
	Status                    models.JobStatus `json:"status"`
	Printer                   string           `json:"printer"`
	Color                     string           `json:"color"`
	Material                  string           `json:"material"`
	WeightG                   *float64         `json:"weight_g"`
	TimeHours                 *float64         `json:"time_hours"`
	CostUSD                   *float64         `json:"cost_usd"`
	AcknowledgedMinimumCharge bool             `json:"acknowledged_minimum_charge"`
	StudentConfirmed          bool             `json:"student_confirmed"`
	StudentConfirmedAt        *time.Time       `json:"student_confirmed_at"`
	ConfirmTokenExpires       *time.Time       `json:"confirm_token_expires"`
	IsConfirmationExpired     bool             `json:"is_confirmation_expired"`
	ConfirmationLastSentAt    *time.Time       `json:"confirmation_last_sent_at"`
	RejectReasons             []string         `json:"reject_reasons"`
	StaffViewedAt             *time.Time       `json:"staff_viewed_at"`
	LastUpdatedBy             *string          `json:"last_updated_by"`
	Notes                     string           `json:"notes"`
	Payment                   *PaymentResponse `json:"payment,omitempty"`
	CreatedAt                 time.Time        `json:"created_at"`
	UpdatedAt                 time.Time        `json:"updated_at"`
}

// PaymentResponse describes a recorded payment.
type PaymentResponse struct {
	Grams       float64   `json:"grams"`
	PriceUSD    float64   `json:"price_usd"`
	TxnNo       string    `json:"txn_no"`
	PickedUpBy  string    `json:"picked_up_by"`
	PaidAt      time.Time `json:"paid_ts"`
	PaidByStaff string    `json:"paid_by_staff"`
}

// NewJobResponse maps a job model into its response.
func NewJobResponse(job models.Job) JobResponse {
	resp := JobResponse{
		ID:                        job.ID,
		StudentName:               job.StudentName,
		StudentEmail:              job.StudentEmail,
		Discipline:                job.Discipline,
		ClassNumber:               job.ClassNumber,
		OriginalFilename:          job.OriginalFilename,
		DisplayName:               job.DisplayName,
		FilePath:                  job.FilePath,
		MetadataPath:              job.MetadataPath,
		Status:                    job.Status,
		Printer:                   job.Printer,
		Color:                     job.Color,
		Material:                  job.Material,
		WeightG:                   job.WeightG,
		TimeHours:                 job.TimeHours,
		CostUSD:                   job.CostUSD(),
		AcknowledgedMinimumCharge: job.AcknowledgedMinimumCharge,
		StudentConfirmed:          job.StudentConfirmed,
		StudentConfirmedAt:        job.StudentConfirmedAt,
		ConfirmTokenExpires:       job.ConfirmTokenExpires,
		IsConfirmationExpired:     job.IsConfirmationExpired,
		ConfirmationLastSentAt:    job.ConfirmationLastSentAt,
		RejectReasons:             []string(job.RejectReasons),
		StaffViewedAt:             job.StaffViewedAt,
		LastUpdatedBy:             job.LastUpdatedBy,
		Notes:                     job.Notes,
		CreatedAt:                 job.CreatedAt,
		UpdatedAt:                 job.UpdatedAt,
	}
	if job.ShortID != nil {
		resp.ShortID = *job.ShortID
	}
	if resp.RejectReasons == nil {
		resp.RejectReasons = []string{}
	}
	if job.Payment != nil {
		resp.Payment = &PaymentResponse{
			Grams:       job.Payment.Grams,
			PriceUSD:    job.Payment.PriceUSD(),
			TxnNo:       job.Payment.TxnNo,
			PickedUpBy:  job.Payment.PickedUpBy,
			PaidAt:      job.Payment.PaidAt,
			PaidByStaff: job.Payment.PaidByStaff,
		}
	}
	return resp
}

// JobListRequest captures listing filters.
type JobListRequest struct {
	Status     string
	Printer    string
	Discipline string
	Search     string
	Page       int
	PageSize   int
}

// JobListResponse wraps a page of jobs.
type JobListResponse struct {
	Items      []JobResponse  `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// ApproveRequest carries the staff estimates for an upload.
type ApproveRequest struct {
	StaffName             string  `json:"staff_name"`
	WeightG               float64 `json:"weight_g" validate:"gt=0,lte=1000000"`
	TimeHours             float64 `json:"time_hours" validate:"gt=0"`
	Material              string  `json:"material" validate:"omitempty,max=32"`
	AuthoritativeFilename string  `json:"authoritative_filename" validate:"omitempty,max=256"`
}

// RejectRequest lists the reasons an upload was refused.
type RejectRequest struct {
	StaffName    string   `json:"staff_name"`
	Reasons      []string `json:"reasons" validate:"omitempty,dive,max=200"`
	CustomReason string   `json:"custom_reason" validate:"omitempty,max=1000"`
}

// ReviewRequest marks or unmarks a job as looked at by staff.
type ReviewRequest struct {
	StaffName string `json:"staff_name"`
	Reviewed  bool   `json:"reviewed"`
}

// PaymentRequest records manual settlement of a completed job.
type PaymentRequest struct {
	StaffName  string  `json:"staff_name"`
	Grams      float64 `json:"grams" validate:"gt=0,lte=1000000"`
	TxnNo      string  `json:"txn_no" validate:"required,max=50"`
	PickedUpBy string  `json:"picked_up_by" validate:"required,max=100"`
}

// NotesRequest replaces the staff notes on a job.
type NotesRequest struct {
	StaffName string `json:"staff_name"`
	Notes     string `json:"notes" validate:"max=5000"`
}

// ConfirmResponse is returned to the student after following the link.
type ConfirmResponse struct {
	JobID            string           `json:"job_id"`
	Status           models.JobStatus `json:"status"`
	AlreadyConfirmed bool             `json:"already_confirmed"`
}
