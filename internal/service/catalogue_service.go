package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/search"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/logger"
)

// CataloguePage is a provider's public catalogue.
type CataloguePage struct {
	ProviderID int64                  `json:"provider_id"`
	BannerURL  string                 `json:"banner_url"`
	ShareURL   string                 `json:"share_url"`
	Items      []domain.CatalogueItem `json:"items"`
}

type CatalogueService interface {
	MyItems(ctx context.Context, sid, term string) (*CataloguePage, error)
	Add(ctx context.Context, sid string, req domain.CatalogueItemRequest) (domain.CatalogueItem, error)
	Delete(ctx context.Context, sid string, id int64) error
	SetBanner(ctx context.Context, sid, url string) (domain.Provider, error)
	ProviderCatalogue(ctx context.Context, providerID int64, term string) (*CataloguePage, error)
}

type catalogueService struct {
	sessions  session.Store
	providers repo.ProviderRepository
	catalogue repo.CatalogueRepository
}

func NewCatalogueService(sessions session.Store, providers repo.ProviderRepository, catalogue repo.CatalogueRepository) CatalogueService {
	return &catalogueService{
		sessions:  sessions,
		providers: providers,
		catalogue: catalogue,
	}
}

func (s *catalogueService) owner(ctx context.Context, sid string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *catalogueService) MyItems(ctx context.Context, sid, term string) (*CataloguePage, error) {
	sess, err := s.owner(ctx, sid)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, sess.ProviderID(), term)
}

func (s *catalogueService) ProviderCatalogue(ctx context.Context, providerID int64, term string) (*CataloguePage, error) {
	if _, err := s.providers.Get(ctx, providerID); err != nil {
		return nil, err
	}
	return s.page(ctx, providerID, term)
}

func (s *catalogueService) page(ctx context.Context, providerID int64, term string) (*CataloguePage, error) {
	items, err := s.catalogue.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogue: %w", err)
	}
	out := &CataloguePage{
		ProviderID: providerID,
		BannerURL:  domain.DefaultCatalogueBanner,
		ShareURL:   fmt.Sprintf(catalogueShareURL, providerID),
		Items:      search.Catalogue(items, term),
	}
	if p, err := s.providers.Get(ctx, providerID); err == nil && p.CatalogueBannerURL != "" {
		out.BannerURL = p.CatalogueBannerURL
	}
	return out, nil
}

func (s *catalogueService) Add(ctx context.Context, sid string, req domain.CatalogueItemRequest) (domain.CatalogueItem, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.CatalogueItem{}, err
	}
	sess, err := s.owner(ctx, sid)
	if err != nil {
		return domain.CatalogueItem{}, err
	}
	item, err := s.catalogue.Add(ctx, domain.CatalogueItem{
		ProviderID:   sess.ProviderID(),
		Title:        req.Title,
		Category:     req.Category,
		Description:  req.Description,
		Price:        req.Price,
		ImageURLs:    req.ImageURLs,
		ExternalLink: req.ExternalLink,
	})
	if err != nil {
		return domain.CatalogueItem{}, fmt.Errorf("failed to add catalogue item: %w", err)
	}
	logger.InfoContext(ctx, "Catalogue item added", "item_id", item.ID, "provider_id", item.ProviderID)
	return item, nil
}

// Delete removes an item owned by the session's provider. A superadmin may
// remove any item.
func (s *catalogueService) Delete(ctx context.Context, sid string, id int64) error {
	sess, err := s.owner(ctx, sid)
	if err != nil {
		return err
	}
	item, err := s.catalogue.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(sess, item.ProviderID) {
		return domain.ErrForbidden
	}
	return s.catalogue.Delete(ctx, id)
}

// SetBanner changes the catalogue banner of the session's own profile.
func (s *catalogueService) SetBanner(ctx context.Context, sid, url string) (domain.Provider, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.Provider{}, domain.ValidationErrors{{Field: "banner_url", Message: "is required"}}
	}
	sess, err := s.owner(ctx, sid)
	if err != nil {
		return domain.Provider{}, err
	}
	return s.providers.Update(ctx, sess.ProviderID(), func(p *domain.Provider) error {
		p.CatalogueBannerURL = url
		return nil
	})
}
