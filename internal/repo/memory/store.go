package memory

import (
	"context"
	"fmt"

	"github.com/noid254/nikosoko/internal/seed"
)

// Store bundles one of each in-process repository.
type Store struct {
	Providers   *ProviderRepo
	Banners     *BannerRepo
	Invitations *InvitationRepo
	Events      *EventRepo
	Catalogue   *CatalogueRepo
	Documents   *DocumentRepo
	Inbox       *InboxRepo
	Categories  *CategoryRepo
}

// NewStore builds repositories populated from d. Seed collections are
// listed newest first, so they are inserted in reverse.
func NewStore(ctx context.Context, d *seed.Data) (*Store, error) {
	s := &Store{
		Providers:   NewProviderRepo(),
		Banners:     NewBannerRepo(),
		Invitations: NewInvitationRepo(),
		Events:      NewEventRepo(),
		Catalogue:   NewCatalogueRepo(),
		Documents:   NewDocumentRepo(),
		Inbox:       NewInboxRepo(),
		Categories:  NewCategoryRepo(d.Categories, d.ReferralCodes, d.DefaultBanners),
	}

	for _, p := range d.Providers {
		if _, err := s.Providers.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to seed provider %d: %w", p.ID, err)
		}
	}
	for i := len(d.Banners) - 1; i >= 0; i-- {
		if _, err := s.Banners.Add(ctx, d.Banners[i]); err != nil {
			return nil, fmt.Errorf("failed to seed banner: %w", err)
		}
	}
	for i := len(d.Invitations) - 1; i >= 0; i-- {
		if err := s.Invitations.Add(ctx, d.Invitations[i]); err != nil {
			return nil, fmt.Errorf("failed to seed invitation %s: %w", d.Invitations[i].ID, err)
		}
	}
	for i := len(d.Events) - 1; i >= 0; i-- {
		if _, err := s.Events.Add(ctx, d.Events[i]); err != nil {
			return nil, fmt.Errorf("failed to seed event: %w", err)
		}
	}
	for _, item := range d.CatalogueItems {
		if _, err := s.Catalogue.Add(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to seed catalogue item: %w", err)
		}
	}
	for i := len(d.Documents) - 1; i >= 0; i-- {
		if err := s.Documents.Add(ctx, d.Documents[i]); err != nil {
			return nil, fmt.Errorf("failed to seed document: %w", err)
		}
	}
	for i := len(d.Inbox) - 1; i >= 0; i-- {
		if _, err := s.Inbox.Add(ctx, d.Inbox[i]); err != nil {
			return nil, fmt.Errorf("failed to seed inbox: %w", err)
		}
	}
	return s, nil
}
