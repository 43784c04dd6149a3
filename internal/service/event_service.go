package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/payments"
	"github.com/noid254/nikosoko/internal/platform/sms"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/search"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/internal/utils"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
	"github.com/noid254/nikosoko/pkg/metrics"
)

const (
	eventQRURL      = "https://nikosoko.app/event/%d"
	eventTimeLayout = "2006-01-02T15:04"
	guestName       = "Guest"
	eventCreatedBy  = "You"
	reminderLead    = 48 * time.Hour
	ticketSuffixLen = 6
	base36          = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type Reminder struct {
	EventID  int64  `json:"event_id"`
	RemindOn string `json:"remind_on"`
}

type InviteResult struct {
	EventID int64    `json:"event_id"`
	Sent    []string `json:"sent"`
}

type EventService interface {
	List(ctx context.Context, category domain.EventCategory, term string) ([]domain.Event, error)
	Create(ctx context.Context, sid string, req domain.EventRequest) (domain.Event, error)
	PurchaseTicket(ctx context.Context, sid string, eventID int64, idempotencyKey string) (domain.Ticket, error)
	InviteGuests(ctx context.Context, sid string, eventID int64, req domain.InviteGuestsRequest) (*InviteResult, error)
	Reminder(ctx context.Context, sid string, eventID int64) (*Reminder, error)
	MyTickets(ctx context.Context, sid string) ([]domain.Ticket, error)
}

type eventService struct {
	sessions session.Store
	events   repo.EventRepository
	gateway  payments.Gateway
	sender   sms.Sender
	currency string
	notifier notifier
	now      Clock
	distance func() float64
	suffix   func() string
}

func NewEventService(
	sessions session.Store,
	eventRepo repo.EventRepository,
	gateway payments.Gateway,
	sender sms.Sender,
	currency string,
	eventBus events.Publisher,
	m *metrics.Metrics,
) EventService {
	return &eventService{
		sessions: sessions,
		events:   eventRepo,
		gateway:  gateway,
		sender:   sender,
		currency: currency,
		notifier: notifier{bus: eventBus, metrics: m},
		now:      time.Now,
		distance: func() float64 {
			return math.Round(rand.Float64() * 10)
		},
		suffix: func() string {
			b := make([]byte, ticketSuffixLen)
			for i := range b {
				b[i] = base36[rand.Intn(len(base36))]
			}
			return string(b)
		},
	}
}

func (s *eventService) List(ctx context.Context, category domain.EventCategory, term string) ([]domain.Event, error) {
	all, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return search.Events(all, category, term), nil
}

func (s *eventService) loggedIn(ctx context.Context, sid string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *eventService) Create(ctx context.Context, sid string, req domain.EventRequest) (domain.Event, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.Event{}, err
	}
	if _, err := s.loggedIn(ctx, sid); err != nil {
		return domain.Event{}, err
	}

	e, err := s.events.Add(ctx, domain.Event{
		Name:          req.Name,
		Date:          req.Date,
		Location:      req.Location,
		Description:   req.Description,
		CoverImageURL: req.CoverImageURL,
		CreatedBy:     eventCreatedBy,
		Category:      domain.EventCommunity,
		TicketType:    req.TicketType,
		DistanceKm:    s.distance(),
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	logger.InfoContext(ctx, "Event created", "event_id", e.ID)
	return e, nil
}

// PurchaseTicket issues a ticket for eventID. Paid entry is charged first;
// a repeated idempotency key returns the ticket already issued for it.
func (s *eventService) PurchaseTicket(ctx context.Context, sid string, eventID int64, idempotencyKey string) (domain.Ticket, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return domain.Ticket{}, err
	}
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return domain.Ticket{}, err
	}

	var receipt payments.Receipt
	if e.EntryFee > 0 {
		receipt, err = s.gateway.Charge(ctx, payments.ChargeRequest{
			Amount:         e.EntryFee * 100,
			Currency:       s.currency,
			Description:    "Ticket for " + e.Name,
			IdempotencyKey: idempotencyKey,
			Metadata: map[string]string{
				"event_id":   strconv.FormatInt(e.ID, 10),
				"session_id": sid,
			},
		})
		if err != nil {
			logger.ErrorContext(ctx, "Ticket payment failed", "error", err, "event_id", e.ID)
			return domain.Ticket{}, fmt.Errorf("failed to charge ticket: %w", err)
		}
	}

	userName := guestName
	if sess.Identity != nil && sess.Identity.Name != "" {
		userName = sess.Identity.Name
	}
	ticket := domain.Ticket{
		ID:            fmt.Sprintf("TKT-%d-%s", e.ID, s.suffix()),
		EventID:       e.ID,
		EventName:     e.Name,
		EventDate:     e.Date,
		EventLocation: e.Location,
		UserName:      userName,
		QRCodeData:    fmt.Sprintf(eventQRURL, e.ID),
		PaymentRef:    receipt.Reference,
		IssuedAt:      s.now().UTC(),
	}

	replayed := false
	_, err = s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if ticket.PaymentRef != "" {
			for _, t := range sess.Tickets {
				if t.PaymentRef == ticket.PaymentRef {
					ticket = t
					replayed = true
					return nil
				}
			}
		}
		sess.Tickets = append(sess.Tickets, ticket)
		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	if replayed {
		return ticket, nil
	}

	s.notifier.publish(ctx, events.TicketPurchased, events.TicketPurchasedEvent{
		TicketID:   ticket.ID,
		EventID:    strconv.FormatInt(e.ID, 10),
		UserName:   ticket.UserName,
		Amount:     e.EntryFee,
		PaymentRef: ticket.PaymentRef,
		IssuedAt:   ticket.IssuedAt,
	})
	logger.InfoContext(ctx, "Ticket issued", "ticket_id", ticket.ID, "event_id", e.ID)
	return ticket, nil
}

// InviteGuests texts an invitation to every phone. The message defaults to
// the event's name, date and location.
func (s *eventService) InviteGuests(ctx context.Context, sid string, eventID int64, req domain.InviteGuestsRequest) (*InviteResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loggedIn(ctx, sid); err != nil {
		return nil, err
	}
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var errs domain.ValidationErrors
	phones := make([]string, 0, len(req.Phones))
	for _, raw := range req.Phones {
		p, ok := utils.NormalizePhone(raw)
		if !ok {
			errs.Add("phones", "invalid phone number "+raw)
			continue
		}
		phones = append(phones, p)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		msg = fmt.Sprintf("You're invited to %s on %s at %s. Get your ticket on Niko Soko.", e.Name, e.Date, e.Location)
	}
	if err := s.sender.SendText(ctx, phones, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to send event invitations", "error", err, "event_id", e.ID)
		return nil, fmt.Errorf("failed to send invitations: %w", err)
	}

	s.notifier.publish(ctx, events.EventInvitationsSent, events.EventInvitationsSentEvent{
		EventID: strconv.FormatInt(e.ID, 10),
		Phones:  phones,
		Message: msg,
	})
	return &InviteResult{EventID: e.ID, Sent: phones}, nil
}

// Reminder reports the day a reminder fires: two days before the event.
// A date that does not parse is echoed back unchanged.
func (s *eventService) Reminder(ctx context.Context, sid string, eventID int64) (*Reminder, error) {
	if _, err := s.loggedIn(ctx, sid); err != nil {
		return nil, err
	}
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := &Reminder{EventID: e.ID, RemindOn: e.Date}
	for _, layout := range []string{eventTimeLayout, domain.DateLayout} {
		if at, err := time.Parse(layout, e.Date); err == nil {
			out.RemindOn = at.Add(-reminderLead).Format(domain.DateLayout)
			break
		}
	}
	return out, nil
}

func (s *eventService) MyTickets(ctx context.Context, sid string) ([]domain.Ticket, error) {
	sess, err := s.loggedIn(ctx, sid)
	if err != nil {
		return nil, err
	}
	if sess.Tickets == nil {
		return []domain.Ticket{}, nil
	}
	return sess.Tickets, nil
}
