// Package memory implements the storage ports in process, guarded by
// mutexes. It is the default driver and backs the tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/utils"
)

type ProviderRepo struct {
	mu      sync.RWMutex
	nextID  int64
	order   []int64
	byID    map[int64]domain.Provider
	byPhone map[string]int64
	now     func() time.Time

	// reserved maps a normalized phone to the id held for it.
	reserved map[string]int64
}

func NewProviderRepo() *ProviderRepo {
	return &ProviderRepo{
		nextID:   1,
		byID:     map[int64]domain.Provider{},
		byPhone:  map[string]int64{},
		reserved: map[string]int64{},
		now:      time.Now,
	}
}

func (r *ProviderRepo) ReserveID(_ context.Context, phone string) (int64, error) {
	key, ok := utils.NormalizePhone(phone)
	if !ok {
		return 0, domain.ErrInvalidPhone
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.reserved[key]; ok {
		return id, nil
	}
	id := r.nextID
	r.nextID++
	r.reserved[key] = id
	return id, nil
}

// Save inserts p or replaces the provider with the same id. A zero id gets
// the next free one.
func (r *ProviderRepo) Save(_ context.Context, p domain.Provider) (domain.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == 0 {
		p.ID = r.nextID
	}
	if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}

	phone, _ := utils.NormalizePhone(p.Phone)
	if owner, ok := r.byPhone[phone]; ok && phone != "" && owner != p.ID {
		return domain.Provider{}, domain.ErrConflict
	}

	now := r.now().UTC()
	old, exists := r.byID[p.ID]
	if exists {
		p.CreatedAt = old.CreatedAt
		r.unindexPhone(old)
	} else {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		r.order = append(r.order, p.ID)
	}
	p.UpdatedAt = now

	stored := p.Clone()
	r.byID[p.ID] = stored
	if phone != "" {
		r.byPhone[phone] = p.ID
	}
	return stored.Clone(), nil
}

// Update applies fn to a copy and stores it only when fn succeeds.
func (r *ProviderRepo) Update(_ context.Context, id int64, fn func(p *domain.Provider) error) (domain.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[id]
	if !ok {
		return domain.Provider{}, domain.ErrNotFound
	}
	next := old.Clone()
	if err := fn(&next); err != nil {
		return domain.Provider{}, err
	}
	next.ID = id

	phone, _ := utils.NormalizePhone(next.Phone)
	if owner, ok := r.byPhone[phone]; ok && phone != "" && owner != id {
		return domain.Provider{}, domain.ErrConflict
	}
	r.unindexPhone(old)
	if phone != "" {
		r.byPhone[phone] = id
	}
	next.UpdatedAt = r.now().UTC()
	r.byID[id] = next
	return next.Clone(), nil
}

func (r *ProviderRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	r.unindexPhone(old)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *ProviderRepo) Get(_ context.Context, id int64) (domain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.Provider{}, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProviderRepo) GetByPhone(_ context.Context, phone string) (domain.Provider, error) {
	norm, ok := utils.NormalizePhone(phone)
	if !ok {
		return domain.Provider{}, domain.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[norm]
	if !ok {
		return domain.Provider{}, domain.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *ProviderRepo) List(_ context.Context) ([]domain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}

func (r *ProviderRepo) IncrementFlags(_ context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	p.FlagCount++
	r.byID[id] = p
	return p.FlagCount, nil
}

func (r *ProviderRepo) IncrementViews(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Views++
	r.byID[id] = p
	return nil
}

func (r *ProviderRepo) unindexPhone(p domain.Provider) {
	if phone, ok := utils.NormalizePhone(p.Phone); ok && r.byPhone[phone] == p.ID {
		delete(r.byPhone, phone)
	}
}
