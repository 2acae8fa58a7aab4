package service

import "strings"

const (
	// SystemActor attributes events raised without a staff member.
	SystemActor = "system"
	// StudentActor attributes events raised through the public confirmation link.
	StudentActor = "student"
	// PublicWorkstation is recorded for requests that carry no workstation token.
	PublicWorkstation = "public"
)

// Actor identifies who performed an operation and from which workstation.
type Actor struct {
	StaffName     string
	WorkstationID string
}

// Normalized trims both fields and defaults the workstation.
func (a Actor) Normalized() Actor {
	a.StaffName = strings.TrimSpace(a.StaffName)
	a.WorkstationID = strings.TrimSpace(a.WorkstationID)
	if a.WorkstationID == "" {
		a.WorkstationID = PublicWorkstation
	}
	return a
}

// Name returns the attribution recorded on events.
func (a Actor) Name() string {
	if name := strings.TrimSpace(a.StaffName); name != "" {
		return name
	}
	return SystemActor
}
