// Package repo declares the storage ports used by the application services.
package repo

import (
	"context"

	"github.com/noid254/nikosoko/internal/domain"
)

// ProviderRepository holds the provider directory. List returns providers in
// insertion order. Phones are unique after normalization. ReserveID hands
// out the id a phone without a profile will sign up under; the same phone
// always gets the same id.
type ProviderRepository interface {
	ReserveID(ctx context.Context, phone string) (int64, error)
	Save(ctx context.Context, p domain.Provider) (domain.Provider, error)
	Update(ctx context.Context, id int64, fn func(p *domain.Provider) error) (domain.Provider, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (domain.Provider, error)
	GetByPhone(ctx context.Context, phone string) (domain.Provider, error)
	List(ctx context.Context) ([]domain.Provider, error)
	IncrementFlags(ctx context.Context, id int64) (int, error)
	IncrementViews(ctx context.Context, id int64) error
}

// BannerRepository lists banners newest first.
type BannerRepository interface {
	Add(ctx context.Context, b domain.SpecialBanner) (domain.SpecialBanner, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.SpecialBanner, error)
}

type InvitationRepository interface {
	Add(ctx context.Context, inv domain.Invitation) error
	Get(ctx context.Context, id string) (domain.Invitation, error)
	Update(ctx context.Context, id string, fn func(inv *domain.Invitation) error) (domain.Invitation, error)
	FindActiveByCode(ctx context.Context, code string) (domain.Invitation, error)
	List(ctx context.Context) ([]domain.Invitation, error)
	ListByHost(ctx context.Context, hostID int64) ([]domain.Invitation, error)
}

// EventRepository lists events newest first.
type EventRepository interface {
	Add(ctx context.Context, e domain.Event) (domain.Event, error)
	Get(ctx context.Context, id int64) (domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
}

type CatalogueRepository interface {
	Add(ctx context.Context, item domain.CatalogueItem) (domain.CatalogueItem, error)
	Get(ctx context.Context, id int64) (domain.CatalogueItem, error)
	Delete(ctx context.Context, id int64) error
	ListByProvider(ctx context.Context, providerID int64) ([]domain.CatalogueItem, error)
	DeleteByProvider(ctx context.Context, providerID int64) error
}

type DocumentRepository interface {
	Add(ctx context.Context, d domain.Document) error
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Document, error)
}

// InboxRepository holds platform messages, newest first. Read state is
// tracked per session, not here.
type InboxRepository interface {
	Add(ctx context.Context, m domain.InboxMessage) (domain.InboxMessage, error)
	Get(ctx context.Context, id int64) (domain.InboxMessage, error)
	List(ctx context.Context) ([]domain.InboxMessage, error)
}

// CategoryRepository keeps parent category names sorted.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Add(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	ReferralCode(ctx context.Context, code string) (domain.ReferralCode, bool)
	DefaultBanner(ctx context.Context, category string) (string, bool)
}
