// Package service holds the marketplace use cases. Every operation runs
// against one browsing session loaded from the session store; shared data
// lives in the repositories.
package service

import (
	"context"
	"time"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
	"github.com/noid254/nikosoko/pkg/metrics"
)

// Clock is replaced in tests.
type Clock func() time.Time

// notifier publishes domain events. Failures are logged and counted, never
// returned to the caller.
type notifier struct {
	bus     events.Publisher
	metrics *metrics.Metrics
}

func (n notifier) publish(ctx context.Context, subject string, payload any) {
	if n.bus == nil {
		return
	}
	result := "ok"
	if err := n.bus.Publish(ctx, subject, payload); err != nil {
		result = "error"
		logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
	if n.metrics != nil {
		n.metrics.EventsPublished.WithLabelValues(subject, result).Inc()
	}
}

func requireLogin(s *session.Session) error {
	if !s.Auth.IsAuthenticated() || s.Identity == nil {
		return domain.ErrAuthRequired
	}
	return nil
}

func requireSuperadmin(s *session.Session) error {
	if err := requireLogin(s); err != nil {
		return err
	}
	if !s.IsSuperadmin() {
		return domain.ErrForbidden
	}
	return nil
}

// canManage reports whether the session may edit provider id: its owner
// or a superadmin.
func canManage(s *session.Session, id int64) bool {
	return s.IsSuperadmin() || (s.ProviderID() != 0 && s.ProviderID() == id)
}

func actor(s *session.Session) string {
	if s.IsSuperadmin() {
		return "superadmin"
	}
	if s.Identity != nil {
		return s.Identity.Name
	}
	return "visitor"
}
