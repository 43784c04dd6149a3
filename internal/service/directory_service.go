package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/noid254/nikosoko/internal/banner"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/search"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/internal/utils"
	"github.com/noid254/nikosoko/internal/viewrouter"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
	"github.com/noid254/nikosoko/pkg/metrics"
)

const (
	profileShareURL   = "https://nikosoko-app/profile/%d"
	catalogueShareURL = "https://nikosoko.app/catalogue/%d"
	avatarURL         = "https://picsum.photos/seed/%s/100/100"
)

type SearchQuery struct {
	Quick   *search.QuickFilter
	Term    string
	Preview bool
}

type SearchResult struct {
	Providers []domain.Provider `json:"providers"`
	Total     int               `json:"total"`
}

// ProfilePage is everything the profile screen shows for one provider.
type ProfilePage struct {
	Provider          domain.Provider        `json:"provider"`
	Banners           []domain.SpecialBanner `json:"banners"`
	Catalogue         []domain.CatalogueItem `json:"catalogue"`
	IsOwner           bool                   `json:"is_owner"`
	CanEdit           bool                   `json:"can_edit"`
	IsSaved           bool                   `json:"is_saved"`
	FlaggedByMe       bool                   `json:"flagged_by_me"`
	HasUnratedContact bool                   `json:"has_unrated_contact"`
	ShareURL          string                 `json:"share_url"`
	CatalogueShareURL string                 `json:"catalogue_share_url"`
}

type DirectoryService interface {
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	OpenProfile(ctx context.Context, sid string, id int64) (*ProfilePage, error)
	MyProfile(ctx context.Context, sid string) (*ProfilePage, error)
	CreateProfile(ctx context.Context, sid string, req domain.ProfileRequest) (domain.Provider, error)
	UpdateProfile(ctx context.Context, sid string, id int64, upd domain.ProfileUpdate) (domain.Provider, error)
	Flag(ctx context.Context, sid string, id int64, reason string) (domain.Provider, error)
	ToggleSaved(ctx context.Context, sid string, id int64) (bool, error)
	SavedContacts(ctx context.Context, sid string) ([]domain.Provider, error)
}

type directoryService struct {
	sessions   session.Store
	providers  repo.ProviderRepository
	categories repo.CategoryRepository
	banners    repo.BannerRepository
	catalogue  repo.CatalogueRepository
	notifier   notifier
	now        Clock
	distance   func() float64
}

func NewDirectoryService(
	sessions session.Store,
	providers repo.ProviderRepository,
	categories repo.CategoryRepository,
	banners repo.BannerRepository,
	catalogue repo.CatalogueRepository,
	eventBus events.Publisher,
	m *metrics.Metrics,
) DirectoryService {
	return &directoryService{
		sessions:   sessions,
		providers:  providers,
		categories: categories,
		banners:    banners,
		catalogue:  catalogue,
		notifier:   notifier{bus: eventBus, metrics: m},
		now:        time.Now,
		distance: func() float64 {
			return math.Round(rand.Float64()*5*10) / 10
		},
	}
}

func (s *directoryService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	all, err := s.providers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	filtered := search.Filter(all, q.Quick, q.Term)
	out := &SearchResult{Providers: filtered, Total: len(filtered)}
	if q.Preview {
		out.Providers = search.Preview(filtered)
	}
	return out, nil
}

func (s *directoryService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// OpenProfile selects a provider for the session. Visits by anyone but the
// owner count as views.
func (s *directoryService) OpenProfile(ctx context.Context, sid string, id int64) (*ProfilePage, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	p, err := s.providers.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sess.ProviderID() != id {
		if err := s.providers.IncrementViews(ctx, id); err != nil {
			logger.WarnContext(ctx, "Failed to count profile view", "error", err, "provider_id", id)
		} else {
			p.Views++
		}
	}

	sess, err = s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		sess.View.OpenProfile(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.page(ctx, sess, p)
}

// MyProfile opens the session's own profile, or moves to signup when the
// identity has none yet and returns ErrNotFound.
func (s *directoryService) MyProfile(ctx context.Context, sid string) (*ProfilePage, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	p, err := s.providers.Get(ctx, sess.ProviderID())
	if errors.Is(err, domain.ErrNotFound) {
		_, uerr := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
			sess.View.Navigate(viewrouter.Signup)
			return nil
		})
		if uerr != nil {
			return nil, uerr
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	sess, err = s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		sess.View.OpenProfile(p.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.page(ctx, sess, p)
}

func (s *directoryService) page(ctx context.Context, sess *session.Session, p domain.Provider) (*ProfilePage, error) {
	all, err := s.banners.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	items, err := s.catalogue.ListByProvider(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogue: %w", err)
	}
	return &ProfilePage{
		Provider:          p,
		Banners:           banner.For(all, p, s.now()),
		Catalogue:         items,
		IsOwner:           sess.ProviderID() == p.ID,
		CanEdit:           canManage(sess, p.ID),
		IsSaved:           sess.IsSaved(p.ID),
		FlaggedByMe:       sess.Flagged[p.ID],
		HasUnratedContact: sess.Contacts.IsUnrated(p.ID),
		ShareURL:          fmt.Sprintf(profileShareURL, p.ID),
		CatalogueShareURL: fmt.Sprintf(catalogueShareURL, p.ID),
	}, nil
}

// CreateProfile lists the session's identity as a provider. A known
// referral code decides verification, cover and category.
func (s *directoryService) CreateProfile(ctx context.Context, sid string, req domain.ProfileRequest) (domain.Provider, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return domain.Provider{}, err
	}
	if err := requireLogin(sess); err != nil {
		return domain.Provider{}, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.Provider{}, err
	}

	identity := *sess.Identity
	if _, err := s.providers.Get(ctx, identity.ProviderID); err == nil {
		return domain.Provider{}, fmt.Errorf("profile already exists: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Provider{}, err
	}

	if err := s.checkCategory(ctx, req.Category); err != nil {
		return domain.Provider{}, err
	}

	category := req.Category
	cover, ok := s.categories.DefaultBanner(ctx, category)
	if !ok {
		cover = domain.DefaultCover
	}
	verified := false
	if rc, ok := s.categories.ReferralCode(ctx, req.ReferralCode); ok && req.ReferralCode != "" {
		verified = rc.IsVerified
		cover = rc.Banner
		category = rc.Category
	}

	avatar := req.AvatarURL
	if avatar == "" {
		avatar = fmt.Sprintf(avatarURL, utils.StripSpaces(req.Name))
	}
	rate, _ := strconv.ParseInt(utils.DigitsOnly(req.Charge), 10, 64)

	p, err := s.providers.Save(ctx, domain.Provider{
		ID:            identity.ProviderID,
		Name:          req.Name,
		Phone:         identity.Phone,
		Whatsapp:      identity.Whatsapp,
		Service:       req.Service,
		AvatarURL:     avatar,
		CoverImageURL: cover,
		DistanceKm:    s.distance(),
		HourlyRate:    rate,
		RateType:      req.RateType,
		Currency:      domain.DefaultCurrency,
		IsVerified:    verified,
		About:         req.About,
		Works:         []string{},
		Category:      category,
		Location:      req.Location,
		IsOnline:      true,
		AccountType:   req.AccountType,
		CTA:           req.CTA,
		ReferralCode:  req.ReferralCode,
	})
	if err != nil {
		return domain.Provider{}, fmt.Errorf("failed to save profile: %w", err)
	}

	_, err = s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if sess.Identity == nil || sess.Identity.ProviderID != p.ID {
			return domain.ErrInvalidTransition
		}
		sess.Identity.Name = p.Name
		sess.Identity.HasProfile = true
		sess.View.OpenProfile(p.ID)
		return nil
	})
	if err != nil {
		return domain.Provider{}, err
	}

	s.notifier.publish(ctx, events.ProviderCreated, events.ProviderChangedEvent{
		ProviderID: p.ID,
		Name:       p.Name,
		ChangedBy:  p.Name,
		ChangedAt:  s.now().UTC(),
	})
	logger.InfoContext(ctx, "Provider profile created", "provider_id", p.ID, "category", p.Category, "verified", p.IsVerified)
	return p, nil
}

func (s *directoryService) checkCategory(ctx context.Context, name string) error {
	all, err := s.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	for _, c := range all {
		if c.Name == name {
			return nil
		}
	}
	return domain.ValidationErrors{{Field: "category", Message: "is not a known category"}}
}

func (s *directoryService) UpdateProfile(ctx context.Context, sid string, id int64, upd domain.ProfileUpdate) (domain.Provider, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return domain.Provider{}, err
	}
	if err := requireLogin(sess); err != nil {
		return domain.Provider{}, err
	}
	if !canManage(sess, id) {
		return domain.Provider{}, domain.ErrForbidden
	}

	var changed []string
	p, err := s.providers.Update(ctx, id, func(p *domain.Provider) error {
		var err error
		changed, err = upd.Apply(p)
		return err
	})
	if err != nil {
		return domain.Provider{}, err
	}
	if len(changed) > 0 {
		s.notifier.publish(ctx, events.ProviderUpdated, events.ProviderChangedEvent{
			ProviderID: p.ID,
			Name:       p.Name,
			Changes:    changed,
			ChangedBy:  actor(sess),
			ChangedAt:  s.now().UTC(),
		})
	}
	return p, nil
}

// Flag reports a provider once per session.
func (s *directoryService) Flag(ctx context.Context, sid string, id int64, reason string) (domain.Provider, error) {
	if !domain.IsFlagReason(reason) {
		return domain.Provider{}, domain.ValidationErrors{{Field: "reason", Message: "is not a flag reason"}}
	}
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return domain.Provider{}, err
	}
	if err := requireLogin(sess); err != nil {
		return domain.Provider{}, err
	}
	if _, err := s.providers.Get(ctx, id); err != nil {
		return domain.Provider{}, err
	}

	_, err = s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if sess.Flagged[id] {
			return domain.ErrAlreadyFlagged
		}
		sess.Flagged[id] = true
		return nil
	})
	if err != nil {
		return domain.Provider{}, err
	}

	count, err := s.providers.IncrementFlags(ctx, id)
	if err != nil {
		if _, rerr := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
			delete(sess.Flagged, id)
			return nil
		}); rerr != nil {
			logger.WarnContext(ctx, "Failed to release flag marker", "provider_id", id, "error", rerr)
		}
		return domain.Provider{}, fmt.Errorf("failed to flag provider: %w", err)
	}
	s.notifier.publish(ctx, events.ProviderFlagged, events.ProviderFlaggedEvent{
		ProviderID: id,
		Reason:     reason,
		FlagCount:  count,
		FlaggedAt:  s.now().UTC(),
	})
	return s.providers.Get(ctx, id)
}

func (s *directoryService) ToggleSaved(ctx context.Context, sid string, id int64) (bool, error) {
	if _, err := s.providers.Get(ctx, id); err != nil {
		return false, err
	}
	var saved bool
	_, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if err := requireLogin(sess); err != nil {
			return err
		}
		saved = sess.ToggleSaved(id)
		return nil
	})
	return saved, err
}

// SavedContacts skips providers deleted since they were saved.
func (s *directoryService) SavedContacts(ctx context.Context, sid string) ([]domain.Provider, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	out := make([]domain.Provider, 0, len(sess.SavedContacts))
	for _, id := range sess.SavedContacts {
		p, err := s.providers.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
