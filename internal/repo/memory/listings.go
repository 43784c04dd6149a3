package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/noid254/nikosoko/internal/domain"
)

type BannerRepo struct {
	mu      sync.RWMutex
	nextID  int64
	banners []domain.SpecialBanner
}

func NewBannerRepo() *BannerRepo { return &BannerRepo{nextID: 1} }

func (r *BannerRepo) Add(_ context.Context, b domain.SpecialBanner) (domain.SpecialBanner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == 0 {
		b.ID = r.nextID
	}
	if b.ID >= r.nextID {
		r.nextID = b.ID + 1
	}
	r.banners = append([]domain.SpecialBanner{b}, r.banners...)
	return b, nil
}

func (r *BannerRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.banners {
		if b.ID == id {
			r.banners = append(r.banners[:i], r.banners[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *BannerRepo) List(_ context.Context) ([]domain.SpecialBanner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.SpecialBanner(nil), r.banners...), nil
}

type EventRepo struct {
	mu     sync.RWMutex
	nextID int64
	events []domain.Event
}

func NewEventRepo() *EventRepo { return &EventRepo{nextID: 1} }

func (r *EventRepo) Add(_ context.Context, e domain.Event) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == 0 {
		e.ID = r.nextID
	}
	if e.ID >= r.nextID {
		r.nextID = e.ID + 1
	}
	r.events = append([]domain.Event{e}, r.events...)
	return e, nil
}

func (r *EventRepo) Get(_ context.Context, id int64) (domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.events {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Event{}, domain.ErrNotFound
}

func (r *EventRepo) List(_ context.Context) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Event(nil), r.events...), nil
}

type CatalogueRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  []domain.CatalogueItem
}

func NewCatalogueRepo() *CatalogueRepo { return &CatalogueRepo{nextID: 1} }

func cloneItem(item domain.CatalogueItem) domain.CatalogueItem {
	item.ImageURLs = append([]string(nil), item.ImageURLs...)
	return item
}

func (r *CatalogueRepo) Add(_ context.Context, item domain.CatalogueItem) (domain.CatalogueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == 0 {
		item.ID = r.nextID
	}
	if item.ID >= r.nextID {
		r.nextID = item.ID + 1
	}
	r.items = append(r.items, cloneItem(item))
	return cloneItem(item), nil
}

func (r *CatalogueRepo) Get(_ context.Context, id int64) (domain.CatalogueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.ID == id {
			return cloneItem(item), nil
		}
	}
	return domain.CatalogueItem{}, domain.ErrNotFound
}

func (r *CatalogueRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *CatalogueRepo) ListByProvider(_ context.Context, providerID int64) ([]domain.CatalogueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.CatalogueItem
	for _, item := range r.items {
		if item.ProviderID == providerID {
			out = append(out, cloneItem(item))
		}
	}
	return out, nil
}

func (r *CatalogueRepo) DeleteByProvider(_ context.Context, providerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, item := range r.items {
		if item.ProviderID != providerID {
			kept = append(kept, item)
		}
	}
	r.items = kept
	return nil
}

type CategoryRepo struct {
	mu             sync.RWMutex
	categories     []domain.Category
	referralCodes  map[string]domain.ReferralCode
	defaultBanners map[string]string
}

func NewCategoryRepo(categories []domain.Category, codes []domain.ReferralCode, banners map[string]string) *CategoryRepo {
	r := &CategoryRepo{
		referralCodes:  map[string]domain.ReferralCode{},
		defaultBanners: map[string]string{},
	}
	for _, c := range categories {
		c.Services = append([]string(nil), c.Services...)
		r.categories = append(r.categories, c)
	}
	r.sort()
	for _, rc := range codes {
		r.referralCodes[strings.ToUpper(rc.Code)] = rc
	}
	for k, v := range banners {
		r.defaultBanners[k] = v
	}
	return r
}

func (r *CategoryRepo) sort() {
	sort.Slice(r.categories, func(i, j int) bool { return r.categories[i].Name < r.categories[j].Name })
}

func (r *CategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		c.Services = append([]string(nil), c.Services...)
		out = append(out, c)
	}
	return out, nil
}

func (r *CategoryRepo) Add(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if strings.EqualFold(c.Name, name) {
			return domain.ErrConflict
		}
	}
	r.categories = append(r.categories, domain.Category{Name: name})
	r.sort()
	return nil
}

func (r *CategoryRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.categories {
		if c.Name == name {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *CategoryRepo) ReferralCode(_ context.Context, code string) (domain.ReferralCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rc, ok := r.referralCodes[strings.ToUpper(strings.TrimSpace(code))]
	return rc, ok
}

func (r *CategoryRepo) DefaultBanner(_ context.Context, category string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.defaultBanners[category]
	return b, ok
}
