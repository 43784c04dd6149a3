package domain

import (
	"strings"
	"time"
)

type EventCategory string

const (
	EventMusic      EventCategory = "Music"
	EventConference EventCategory = "Conference"
	EventParty      EventCategory = "Party"
	EventWedding    EventCategory = "Wedding"
	EventCommunity  EventCategory = "Community"

	// EventAll is the filter value that disables category matching.
	EventAll EventCategory = "All"
)

type TicketType string

const (
	TicketSingle   TicketType = "single"
	TicketMultiple TicketType = "multiple"
)

const DefaultEventCover = "https://picsum.photos/seed/newevent/600/400"

type Event struct {
	ID            int64         `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Date          string        `json:"date" yaml:"date"`
	Location      string        `json:"location" yaml:"location"`
	Description   string        `json:"description" yaml:"description"`
	CoverImageURL string        `json:"cover_image_url" yaml:"cover_image_url"`
	CreatedBy     string        `json:"created_by" yaml:"created_by"`
	Category      EventCategory `json:"category" yaml:"category"`
	EntryFee      int64         `json:"entry_fee" yaml:"entry_fee"`
	TicketType    TicketType    `json:"ticket_type" yaml:"ticket_type"`
	DistanceKm    float64       `json:"distance_km" yaml:"distance_km"`
}

type EventRequest struct {
	Name          string     `json:"name"`
	Date          string     `json:"date"`
	Location      string     `json:"location"`
	Description   string     `json:"description"`
	CoverImageURL string     `json:"cover_image_url"`
	TicketType    TicketType `json:"ticket_type"`
}

func (r *EventRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Date = strings.TrimSpace(r.Date)
	r.Location = strings.TrimSpace(r.Location)
	r.Description = strings.TrimSpace(r.Description)
	r.CoverImageURL = strings.TrimSpace(r.CoverImageURL)
	if r.CoverImageURL == "" {
		r.CoverImageURL = DefaultEventCover
	}
	if r.TicketType == "" {
		r.TicketType = TicketSingle
	}
}

func (r EventRequest) Validate() error {
	var errs ValidationErrors
	errs.Required("name", r.Name)
	errs.Required("date", r.Date)
	errs.Required("location", r.Location)
	errs.Required("description", r.Description)
	if r.TicketType != TicketSingle && r.TicketType != TicketMultiple {
		errs.Add("ticket_type", "must be single or multiple")
	}
	return errs.Err()
}

// Ticket snapshots the event at purchase time and never changes afterwards.
type Ticket struct {
	ID            string    `json:"id" yaml:"id"`
	EventID       int64     `json:"event_id" yaml:"event_id"`
	EventName     string    `json:"event_name" yaml:"event_name"`
	EventDate     string    `json:"event_date" yaml:"event_date"`
	EventLocation string    `json:"event_location" yaml:"event_location"`
	UserName      string    `json:"user_name" yaml:"user_name"`
	QRCodeData    string    `json:"qr_code_data" yaml:"qr_code_data"`
	PaymentRef    string    `json:"payment_ref,omitempty" yaml:"payment_ref"`
	IssuedAt      time.Time `json:"issued_at" yaml:"-"`
}

type InviteGuestsRequest struct {
	Phones  []string `json:"phones"`
	Message string   `json:"message"`
}

// Normalize drops blank entries and trims the rest.
func (r *InviteGuestsRequest) Normalize() {
	out := r.Phones[:0]
	for _, p := range r.Phones {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	r.Phones = out
}

func (r InviteGuestsRequest) Validate() error {
	var errs ValidationErrors
	if len(r.Phones) == 0 {
		errs.Add("phones", "enter at least one phone number")
	}
	return errs.Err()
}
