package service

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

type emailView struct {
	StudentName string
	DisplayName string
	Printer     string
	Material    string
	Color       string
	Cost        string
	Weight      string
	PrintTime   string
	ConfirmURL  string
	Reasons     []string
	ExpiryHours int
	MinimumCost string
}

const approvalText = `Hello {{.StudentName}},

Your 3D print job has been reviewed and approved by the FabLab team.

APPROVED JOB DETAILS:
File: {{.DisplayName}}
Printer: {{.Printer}}
Material: {{.Material}}
Color: {{.Color}}

PRICING & TIME ESTIMATE:
Total Cost: {{.Cost}}
Weight: {{.Weight}}
Estimated Print Time: {{.PrintTime}}

Note: All FabLab jobs have a minimum charge of {{.MinimumCost}}. Pricing is based on material weight at $0.10/gram for filament and $0.20/gram for resin.

ACTION REQUIRED:
Please confirm your job with this link to add it to the print queue:
{{.ConfirmURL}}

This confirmation link will expire in {{.ExpiryHours}} hours.
If you did not request this, you can safely ignore this email.
`

const approvalHTML = `<h2>Job Approved</h2>
<p>Hello {{.StudentName}},</p>
<p>Your 3D print job has been reviewed and approved by the FabLab team.</p>
<p><strong>File:</strong> {{.DisplayName}}<br>
<strong>Total Cost:</strong> {{.Cost}}<br>
<strong>Weight:</strong> {{.Weight}}<br>
<strong>Estimated Print Time:</strong> {{.PrintTime}}</p>
<p>All FabLab jobs have a minimum charge of {{.MinimumCost}}.</p>
<p><a href="{{.ConfirmURL}}">Confirm Your Job</a></p>
<p><small>This confirmation link will expire in {{.ExpiryHours}} hours.</small></p>
`

const submissionText = `Hello {{.StudentName}},

Your 3D model has been uploaded and is queued for staff review.

Submitted File: {{.DisplayName}}
Printer: {{.Printer}}
Material: {{.Material}}
Color: {{.Color}}

You will receive an email with either approval details and pricing, or feedback for required modifications.
`

const submissionHTML = `<h2>Model Uploaded</h2>
<p>Hello {{.StudentName}},</p>
<p>Your 3D model <strong>{{.DisplayName}}</strong> has been uploaded and is queued for review.</p>
`

const rejectionText = `Hello {{.StudentName}},

Your 3D print job {{.DisplayName}} could not be approved for the following reasons:
{{range .Reasons}}- {{.}}
{{end}}
Please address these issues and submit a new file.
`

const rejectionHTML = `<h2>Job Not Approved</h2>
<p>Hello {{.StudentName}},</p>
<p>Your 3D print job <strong>{{.DisplayName}}</strong> could not be approved for the following reasons:</p>
<ul>{{range .Reasons}}<li>{{.}}</li>{{end}}</ul>
`

const completionText = `Hello {{.StudentName}},

Your 3D print {{.DisplayName}} is complete and ready for pickup at the FabLab.
Amount due: {{.Cost}}
`

const completionHTML = `<h2>Ready for Pickup</h2>
<p>Hello {{.StudentName}},</p>
<p>Your 3D print <strong>{{.DisplayName}}</strong> is complete and ready for pickup at the FabLab.</p>
<p><strong>Amount due:</strong> {{.Cost}}</p>
`

var (
	approvalTextTmpl   = texttemplate.Must(texttemplate.New("approval").Parse(approvalText))
	approvalHTMLTmpl   = htmltemplate.Must(htmltemplate.New("approval").Parse(approvalHTML))
	submissionTextTmpl = texttemplate.Must(texttemplate.New("submission").Parse(submissionText))
	submissionHTMLTmpl = htmltemplate.Must(htmltemplate.New("submission").Parse(submissionHTML))
	rejectionTextTmpl  = texttemplate.Must(texttemplate.New("rejection").Parse(rejectionText))
	rejectionHTMLTmpl  = htmltemplate.Must(htmltemplate.New("rejection").Parse(rejectionHTML))
	completionTextTmpl = texttemplate.Must(texttemplate.New("completion").Parse(completionText))
	completionHTMLTmpl = htmltemplate.Must(htmltemplate.New("completion").Parse(completionHTML))
)

func newEmailView(job models.Job) emailView {
	view := emailView{
		StudentName: job.StudentName,
		DisplayName: job.DisplayName,
		Printer:     job.Printer,
		Material:    job.Material,
		Color:       job.Color,
		Cost:        "Not specified",
		Weight:      "Not specified",
		PrintTime:   "Not specified",
		Reasons:     []string(job.RejectReasons),
		ExpiryHours: int(DefaultConfirmationMaxAge.Hours()),
		MinimumCost: formatCents(MinimumCostCents()),
	}
	if job.CostCents != nil {
		view.Cost = formatCents(*job.CostCents)
	}
	if job.WeightG != nil {
		view.Weight = fmt.Sprintf("%gg", *job.WeightG)
	}
	if job.TimeHours != nil {
		view.PrintTime = formatPrintTime(*job.TimeHours)
	}
	return view
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func formatPrintTime(hours float64) string {
	if hours >= 1 {
		return fmt.Sprintf("%.1f hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(hours*60))
}

func renderMessage(subject string, job models.Job, view emailView, text *texttemplate.Template, html *htmltemplate.Template) (Message, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := text.Execute(&textBuf, view); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", text.Name(), err)
	}
	if err := html.Execute(&htmlBuf, view); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", html.Name(), err)
	}
	return Message{
		Subject:    subject,
		Recipients: []string{job.StudentEmail},
		TextBody:   textBuf.String(),
		HTMLBody:   htmlBuf.String(),
	}, nil
}

// ApprovalEmail builds the quote email carrying the confirmation link.
func ApprovalEmail(job models.Job, confirmURL string, expiryHours int) (Message, error) {
	view := newEmailView(job)
	view.ConfirmURL = confirmURL
	if expiryHours > 0 {
		view.ExpiryHours = expiryHours
	}
	return renderMessage("3D Print Job Approved - Confirm to Proceed", job, view, approvalTextTmpl, approvalHTMLTmpl)
}

// SubmissionEmail acknowledges a new upload.
func SubmissionEmail(job models.Job) (Message, error) {
	return renderMessage("3D Model Successfully Uploaded", job, newEmailView(job), submissionTextTmpl, submissionHTMLTmpl)
}

// RejectionEmail explains why an upload was refused.
func RejectionEmail(job models.Job) (Message, error) {
	return renderMessage("3D Print Job Not Approved", job, newEmailView(job), rejectionTextTmpl, rejectionHTMLTmpl)
}

// CompletionEmail tells the student the print is ready.
func CompletionEmail(job models.Job) (Message, error) {
	return renderMessage("3D Print Job Ready for Pickup", job, newEmailView(job), completionTextTmpl, completionHTMLTmpl)
}
