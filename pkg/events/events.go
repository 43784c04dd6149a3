package events

import (
	"context"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Subjects
const (
	ContactInitiated = "contact.initiated"
	ContactRated     = "contact.rated"
	ContactDismissed = "contact.dismissed"

	ProviderCreated = "provider.created"
	ProviderUpdated = "provider.updated"
	ProviderFlagged = "provider.flagged"
	ProviderDeleted = "provider.deleted"

	TicketPurchased      = "ticket.purchased"
	InvitationCreated    = "invitation.created"
	InvitationCanceled   = "invitation.canceled"
	EventInvitationsSent = "event.invitations.sent"

	AdminBroadcast = "admin.broadcast"

	SessionLogin  = "session.login"
	SessionLogout = "session.logout"
)

// Payloads

type ContactInitiatedEvent struct {
	SessionID   string    `json:"session_id"`
	ProviderID  int64     `json:"provider_id"`
	Channel     string    `json:"channel"`
	InitiatedAt time.Time `json:"initiated_at"`
}

type ContactRatedEvent struct {
	SessionID  string    `json:"session_id"`
	ProviderID int64     `json:"provider_id"`
	Rating     int       `json:"rating"`
	RatedAt    time.Time `json:"rated_at"`
}

type ContactDismissedEvent struct {
	SessionID   string    `json:"session_id"`
	ProviderID  int64     `json:"provider_id"`
	DismissedAt time.Time `json:"dismissed_at"`
}

type ProviderChangedEvent struct {
	ProviderID int64     `json:"provider_id"`
	Name       string    `json:"name"`
	Changes    []string  `json:"changes,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ChangedBy  string    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}

type ProviderFlaggedEvent struct {
	ProviderID int64     `json:"provider_id"`
	Reason     string    `json:"reason"`
	FlagCount  int       `json:"flag_count"`
	FlaggedAt  time.Time `json:"flagged_at"`
}

type TicketPurchasedEvent struct {
	TicketID   string    `json:"ticket_id"`
	EventID    string    `json:"event_id"`
	UserName   string    `json:"user_name"`
	Amount     int64     `json:"amount"`
	PaymentRef string    `json:"payment_ref,omitempty"`
	IssuedAt   time.Time `json:"issued_at"`
}

type InvitationEvent struct {
	InvitationID string    `json:"invitation_id"`
	HostID       int64     `json:"host_id"`
	VisitorPhone string    `json:"visitor_phone"`
	VisitDate    string    `json:"visit_date"`
	Status       string    `json:"status"`
	At           time.Time `json:"at"`
}

type EventInvitationsSentEvent struct {
	EventID string   `json:"event_id"`
	Phones  []string `json:"phones"`
	Message string   `json:"message"`
}

type BroadcastEvent struct {
	Message string            `json:"message"`
	Filters map[string]string `json:"filters"`
	Summary string            `json:"summary"`
	SentAt  time.Time         `json:"sent_at"`
}

type SessionEvent struct {
	SessionID  string    `json:"session_id"`
	ProviderID int64     `json:"provider_id,omitempty"`
	Role       string    `json:"role"`
	At         time.Time `json:"at"`
}
