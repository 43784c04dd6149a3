package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noid254/nikosoko/internal/banner"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/logger"
)

type BannerService interface {
	List(ctx context.Context) ([]domain.SpecialBanner, error)
	Add(ctx context.Context, sid string, b domain.SpecialBanner) (domain.SpecialBanner, error)
	Delete(ctx context.Context, sid string, id int64) error
	For(ctx context.Context, providerID int64) ([]domain.SpecialBanner, error)
}

type bannerService struct {
	sessions  session.Store
	banners   repo.BannerRepository
	providers repo.ProviderRepository
	now       Clock
}

func NewBannerService(sessions session.Store, banners repo.BannerRepository, providers repo.ProviderRepository) BannerService {
	return &bannerService{
		sessions:  sessions,
		banners:   banners,
		providers: providers,
		now:       time.Now,
	}
}

func (s *bannerService) List(ctx context.Context) ([]domain.SpecialBanner, error) {
	return s.banners.List(ctx)
}

func (s *bannerService) authorize(ctx context.Context, sid string) error {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return err
	}
	return requireSuperadmin(sess)
}

func (s *bannerService) Add(ctx context.Context, sid string, b domain.SpecialBanner) (domain.SpecialBanner, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return domain.SpecialBanner{}, err
	}
	if err := s.authorize(ctx, sid); err != nil {
		return domain.SpecialBanner{}, err
	}
	b.ID = 0
	saved, err := s.banners.Add(ctx, b)
	if err != nil {
		return domain.SpecialBanner{}, fmt.Errorf("failed to add banner: %w", err)
	}
	logger.InfoContext(ctx, "Banner added", "banner_id", saved.ID)
	return saved, nil
}

func (s *bannerService) Delete(ctx context.Context, sid string, id int64) error {
	if err := s.authorize(ctx, sid); err != nil {
		return err
	}
	if err := s.banners.Delete(ctx, id); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Banner deleted", "banner_id", id)
	return nil
}

// For lists the banners shown on a provider's profile today.
func (s *bannerService) For(ctx context.Context, providerID int64) ([]domain.SpecialBanner, error) {
	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	all, err := s.banners.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banner.For(all, p, s.now()), nil
}
