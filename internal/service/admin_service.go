package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/search"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/internal/viewrouter"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
	"github.com/noid254/nikosoko/pkg/metrics"
)

const mostViewedLimit = 5

// Dashboard feeds the admin dashboard and analytics pages.
type Dashboard struct {
	Stats      search.Stats      `json:"stats"`
	MostViewed []domain.Provider `json:"most_viewed"`
}

type BroadcastRequest struct {
	Message string            `json:"message"`
	Filters map[string]string `json:"filters"`
}

type BroadcastResult struct {
	Message string    `json:"message"`
	Summary string    `json:"summary"`
	SentAt  time.Time `json:"sent_at"`
}

type AdminService interface {
	Users(ctx context.Context, sid string, status search.VerificationFilter, term string) ([]domain.Provider, error)
	Flagged(ctx context.Context, sid string) ([]domain.Provider, error)
	Dashboard(ctx context.Context, sid string) (*Dashboard, error)
	SetVerification(ctx context.Context, sid string, id int64, req domain.VerificationRequest) (domain.Provider, error)
	DeleteProvider(ctx context.Context, sid string, id int64) error
	AddCategory(ctx context.Context, sid, name string) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, sid, name string) ([]domain.Category, error)
	Broadcast(ctx context.Context, sid string, req BroadcastRequest) (*BroadcastResult, error)
}

type adminService struct {
	sessions   session.Store
	providers  repo.ProviderRepository
	catalogue  repo.CatalogueRepository
	categories repo.CategoryRepository
	notifier   notifier
	now        Clock
}

func NewAdminService(
	sessions session.Store,
	providers repo.ProviderRepository,
	catalogue repo.CatalogueRepository,
	categories repo.CategoryRepository,
	eventBus events.Publisher,
	m *metrics.Metrics,
) AdminService {
	return &adminService{
		sessions:   sessions,
		providers:  providers,
		catalogue:  catalogue,
		categories: categories,
		notifier:   notifier{bus: eventBus, metrics: m},
		now:        time.Now,
	}
}

func (s *adminService) authorize(ctx context.Context, sid string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireSuperadmin(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *adminService) listProviders(ctx context.Context, sid string) ([]domain.Provider, error) {
	if _, err := s.authorize(ctx, sid); err != nil {
		return nil, err
	}
	all, err := s.providers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return all, nil
}

func (s *adminService) Users(ctx context.Context, sid string, status search.VerificationFilter, term string) ([]domain.Provider, error) {
	all, err := s.listProviders(ctx, sid)
	if err != nil {
		return nil, err
	}
	return search.AdminUsers(all, status, term), nil
}

func (s *adminService) Flagged(ctx context.Context, sid string) ([]domain.Provider, error) {
	all, err := s.listProviders(ctx, sid)
	if err != nil {
		return nil, err
	}
	return search.Flagged(all), nil
}

func (s *adminService) Dashboard(ctx context.Context, sid string) (*Dashboard, error) {
	all, err := s.listProviders(ctx, sid)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Stats:      search.DashboardStats(all),
		MostViewed: search.MostViewed(all, mostViewedLimit),
	}, nil
}

func (s *adminService) SetVerification(ctx context.Context, sid string, id int64, req domain.VerificationRequest) (domain.Provider, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := req.Validate(); err != nil {
		return domain.Provider{}, err
	}
	if _, err := s.authorize(ctx, sid); err != nil {
		return domain.Provider{}, err
	}

	changed := false
	p, err := s.providers.Update(ctx, id, func(p *domain.Provider) error {
		changed = p.IsVerified != req.Verified
		p.IsVerified = req.Verified
		return nil
	})
	if err != nil {
		return domain.Provider{}, err
	}
	if !changed {
		return p, nil
	}

	s.notifier.publish(ctx, events.ProviderUpdated, events.ProviderChangedEvent{
		ProviderID: p.ID,
		Name:       p.Name,
		Changes:    []string{"is_verified"},
		Reason:     req.Reason,
		ChangedBy:  "superadmin",
		ChangedAt:  s.now().UTC(),
	})
	logger.InfoContext(ctx, "Provider verification changed", "provider_id", p.ID, "verified", p.IsVerified, "reason", req.Reason)
	return p, nil
}

// DeleteProvider removes a provider with its catalogue. The admin's own
// session drops the selection if it pointed at the deleted profile.
func (s *adminService) DeleteProvider(ctx context.Context, sid string, id int64) error {
	if _, err := s.authorize(ctx, sid); err != nil {
		return err
	}
	p, err := s.providers.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.providers.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.catalogue.DeleteByProvider(ctx, id); err != nil {
		logger.ErrorContext(ctx, "Failed to delete provider catalogue", "error", err, "provider_id", id)
	}

	_, err = s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if sel := sess.View.SelectedProfile; sel != nil && *sel == id {
			sess.View.ClearSelection()
			if sess.View.Current == viewrouter.Profile {
				sess.View.Navigate(viewrouter.Main)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.publish(ctx, events.ProviderDeleted, events.ProviderChangedEvent{
		ProviderID: p.ID,
		Name:       p.Name,
		ChangedBy:  "superadmin",
		ChangedAt:  s.now().UTC(),
	})
	logger.InfoContext(ctx, "Provider deleted", "provider_id", id)
	return nil
}

func (s *adminService) AddCategory(ctx context.Context, sid, name string) ([]domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ValidationErrors{{Field: "name", Message: "is required"}}
	}
	if _, err := s.authorize(ctx, sid); err != nil {
		return nil, err
	}
	if err := s.categories.Add(ctx, name); err != nil {
		return nil, err
	}
	return s.categories.List(ctx)
}

func (s *adminService) DeleteCategory(ctx context.Context, sid, name string) ([]domain.Category, error) {
	if _, err := s.authorize(ctx, sid); err != nil {
		return nil, err
	}
	if err := s.categories.Delete(ctx, strings.TrimSpace(name)); err != nil {
		return nil, err
	}
	return s.categories.List(ctx)
}

// Broadcast publishes a notification to providers matching filters. Filter
// values of "All" are ignored.
func (s *adminService) Broadcast(ctx context.Context, sid string, req BroadcastRequest) (*BroadcastResult, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, domain.ValidationErrors{{Field: "message", Message: "is required"}}
	}
	if _, err := s.authorize(ctx, sid); err != nil {
		return nil, err
	}

	out := &BroadcastResult{
		Message: msg,
		Summary: BroadcastSummary(req.Filters),
		SentAt:  s.now().UTC(),
	}
	s.notifier.publish(ctx, events.AdminBroadcast, events.BroadcastEvent{
		Message: msg,
		Filters: req.Filters,
		Summary: out.Summary,
		SentAt:  out.SentAt,
	})
	logger.InfoContext(ctx, "Broadcast sent", "filters", out.Summary)
	return out, nil
}

// BroadcastSummary renders the active filters as "key: value" pairs in key
// order, e.g. "category: Home, location: Nairobi".
func BroadcastSummary(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k, v := range filters {
		if v == "" || v == "All" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+filters[k])
	}
	return strings.Join(parts, ", ")
}
