package service

import (
	"context"
	"errors"
	"time"

	"github.com/noid254/nikosoko/internal/contactgate"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
	"github.com/noid254/nikosoko/pkg/metrics"
)

// LimitError is returned when a contact is refused until Pending is rated.
type LimitError struct {
	Pending contactgate.Contact
}

func (e *LimitError) Error() string { return domain.ErrRateLimitReached.Error() }

func (e *LimitError) Unwrap() error { return domain.ErrRateLimitReached }

func (e *LimitError) PendingContact() contactgate.Contact { return e.Pending }

type ContactResult struct {
	Link     string            `json:"link"`
	Contacts contactgate.State `json:"contacts"`
}

type ContactService interface {
	Initiate(ctx context.Context, sid string, providerID int64, channel domain.CTA) (*ContactResult, error)
	Rate(ctx context.Context, sid string, providerID int64, rating int) (contactgate.State, error)
	Dismiss(ctx context.Context, sid string, providerID int64) (contactgate.State, error)
	Defer(ctx context.Context, sid string) (contactgate.State, error)
	State(ctx context.Context, sid string) (contactgate.State, error)
}

type contactService struct {
	sessions  session.Store
	providers repo.ProviderRepository
	notifier  notifier
	metrics   *metrics.Metrics
	now       Clock
}

func NewContactService(
	sessions session.Store,
	providers repo.ProviderRepository,
	eventBus events.Publisher,
	m *metrics.Metrics,
) ContactService {
	return &contactService{
		sessions:  sessions,
		providers: providers,
		notifier:  notifier{bus: eventBus, metrics: m},
		metrics:   m,
		now:       time.Now,
	}
}

// Initiate resolves the channel link first: a provider without that
// channel is never counted as contacted.
func (s *contactService) Initiate(ctx context.Context, sid string, providerID int64, channel domain.CTA) (*ContactResult, error) {
	current, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireLogin(current); err != nil {
		return nil, err
	}

	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	link, err := contactgate.Link(channel, p)
	if err != nil {
		return nil, err
	}

	var gateErr error
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		gateErr = sess.Contacts.InitiateContact(sess.Auth.IsAuthenticated(), contactgate.Contact{
			ProviderID:  p.ID,
			Name:        p.Name,
			ContactedAt: s.now().UTC(),
		})
		if errors.Is(gateErr, domain.ErrAuthRequired) {
			return gateErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if errors.Is(gateErr, domain.ErrRateLimitReached) {
		if s.metrics != nil {
			s.metrics.RateLimitHits.Inc()
		}
		logger.InfoContext(ctx, "Contact blocked until a rating is given", "session_id", sid, "provider_id", providerID)
		return nil, &LimitError{Pending: *sess.Contacts.Pending}
	}

	if s.metrics != nil {
		s.metrics.ContactsInitiated.WithLabelValues(string(channel)).Inc()
	}
	s.notifier.publish(ctx, events.ContactInitiated, events.ContactInitiatedEvent{
		SessionID:   sid,
		ProviderID:  providerID,
		Channel:     string(channel),
		InitiatedAt: s.now().UTC(),
	})
	return &ContactResult{Link: link, Contacts: sess.Contacts}, nil
}

func (s *contactService) Rate(ctx context.Context, sid string, providerID int64, rating int) (contactgate.State, error) {
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if err := requireLogin(sess); err != nil {
			return err
		}
		return sess.Contacts.SubmitRating(providerID, rating)
	})
	if err != nil {
		return contactgate.State{}, err
	}
	if s.metrics != nil {
		s.metrics.Ratings.WithLabelValues("rated").Inc()
	}
	s.notifier.publish(ctx, events.ContactRated, events.ContactRatedEvent{
		SessionID:  sid,
		ProviderID: providerID,
		Rating:     rating,
		RatedAt:    s.now().UTC(),
	})
	return sess.Contacts, nil
}

func (s *contactService) Dismiss(ctx context.Context, sid string, providerID int64) (contactgate.State, error) {
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if err := requireLogin(sess); err != nil {
			return err
		}
		sess.Contacts.DismissAsNeverHappened(providerID)
		return nil
	})
	if err != nil {
		return contactgate.State{}, err
	}
	if s.metrics != nil {
		s.metrics.Ratings.WithLabelValues("dismissed").Inc()
	}
	s.notifier.publish(ctx, events.ContactDismissed, events.ContactDismissedEvent{
		SessionID:   sid,
		ProviderID:  providerID,
		DismissedAt: s.now().UTC(),
	})
	return sess.Contacts, nil
}

func (s *contactService) Defer(ctx context.Context, sid string) (contactgate.State, error) {
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		return sess.Contacts.Defer()
	})
	if err != nil {
		return contactgate.State{}, err
	}
	return sess.Contacts, nil
}

func (s *contactService) State(ctx context.Context, sid string) (contactgate.State, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return contactgate.State{}, err
	}
	return sess.Contacts, nil
}
