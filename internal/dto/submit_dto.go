package dto

// SubmitRequest holds the form fields of a student submission.
type SubmitRequest struct {
	StudentName               string `form:"student_name" json:"student_name" validate:"required,max=100"`
	StudentEmail              string `form:"student_email" json:"student_email" validate:"required,email,max=100"`
	Discipline                string `form:"discipline" json:"discipline" validate:"required,max=50"`
	ClassNumber               string `form:"class_number" json:"class_number" validate:"required,max=50"`
	Printer                   string `form:"printer" json:"printer" validate:"required,max=64"`
	Color                     string `form:"color" json:"color" validate:"required,max=32"`
	Material                  string `form:"material" json:"material" validate:"required,max=32"`
	AcknowledgedMinimumCharge bool   `form:"acknowledged_minimum_charge" json:"acknowledged_minimum_charge"`
}

// SubmitResponse identifies the created job.
type SubmitResponse struct {
	JobID        string `json:"job_id"`
	ShortID      string `json:"short_id"`
	Status       string `json:"status"`
	DisplayName  string `json:"display_name"`
	DetectedMIME string `json:"detected_mime"`
}
