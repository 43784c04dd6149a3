package domain

import "time"

type InvitationStatus string

const (
	InvitationActive   InvitationStatus = "Active"
	InvitationCanceled InvitationStatus = "Canceled"
	InvitationUsed     InvitationStatus = "Used"
)

// GateRole decides which invitations a session sees on the gate-pass dashboard.
type GateRole string

const (
	GateSuperhost GateRole = "Superhost"
	GateHost      GateRole = "Host"
	GateVisitor   GateRole = "Visitor"
)

type Invitation struct {
	ID           string           `json:"id" yaml:"id"`
	HostID       int64            `json:"host_id" yaml:"host_id"`
	HostName     string           `json:"host_name" yaml:"host_name"`
	VisitorPhone string           `json:"visitor_phone" yaml:"visitor_phone"`
	VisitDate    string           `json:"visit_date" yaml:"visit_date"`
	Status       InvitationStatus `json:"status" yaml:"status"`
	AccessCode   string           `json:"access_code" yaml:"access_code"`
	CreatedAt    time.Time        `json:"created_at" yaml:"-"`
}

// Cancel moves an active invitation to Canceled. Used and canceled passes
// cannot change.
func (i *Invitation) Cancel() error {
	if i.Status != InvitationActive {
		return ErrInvalidTransition
	}
	i.Status = InvitationCanceled
	return nil
}

// CheckIn consumes an active invitation at the gate.
func (i *Invitation) CheckIn() error {
	if i.Status != InvitationActive {
		return ErrInvalidTransition
	}
	i.Status = InvitationUsed
	return nil
}

type InvitationRequest struct {
	VisitorPhone string `json:"visitor_phone"`
	VisitDate    string `json:"visit_date"`
}
