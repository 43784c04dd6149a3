package memory

import (
	"context"
	"sync"

	"github.com/noid254/nikosoko/internal/domain"
)

// InvitationRepo keeps gate passes newest first.
type InvitationRepo struct {
	mu          sync.RWMutex
	invitations []domain.Invitation
}

func NewInvitationRepo() *InvitationRepo { return &InvitationRepo{} }

func (r *InvitationRepo) Add(_ context.Context, inv domain.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.invitations {
		if have.ID == inv.ID {
			return domain.ErrConflict
		}
	}
	r.invitations = append([]domain.Invitation{inv}, r.invitations...)
	return nil
}

func (r *InvitationRepo) Get(_ context.Context, id string) (domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invitations {
		if inv.ID == id {
			return inv, nil
		}
	}
	return domain.Invitation{}, domain.ErrNotFound
}

func (r *InvitationRepo) Update(_ context.Context, id string, fn func(inv *domain.Invitation) error) (domain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.invitations {
		if r.invitations[i].ID != id {
			continue
		}
		next := r.invitations[i]
		if err := fn(&next); err != nil {
			return domain.Invitation{}, err
		}
		r.invitations[i] = next
		return next, nil
	}
	return domain.Invitation{}, domain.ErrNotFound
}

func (r *InvitationRepo) FindActiveByCode(_ context.Context, code string) (domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invitations {
		if inv.AccessCode == code && inv.Status == domain.InvitationActive {
			return inv, nil
		}
	}
	return domain.Invitation{}, domain.ErrNotFound
}

func (r *InvitationRepo) List(_ context.Context) ([]domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Invitation(nil), r.invitations...), nil
}

func (r *InvitationRepo) ListByHost(_ context.Context, hostID int64) ([]domain.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Invitation
	for _, inv := range r.invitations {
		if inv.HostID == hostID {
			out = append(out, inv)
		}
	}
	return out, nil
}

type DocumentRepo struct {
	mu   sync.RWMutex
	docs []domain.Document
}

func NewDocumentRepo() *DocumentRepo { return &DocumentRepo{} }

func (r *DocumentRepo) Add(_ context.Context, d domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append([]domain.Document{d}, r.docs...)
	return nil
}

func (r *DocumentRepo) ListByOwner(_ context.Context, ownerID int64) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Document
	for _, d := range r.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

type InboxRepo struct {
	mu       sync.RWMutex
	nextID   int64
	messages []domain.InboxMessage
}

func NewInboxRepo() *InboxRepo { return &InboxRepo{nextID: 1} }

func (r *InboxRepo) Add(_ context.Context, m domain.InboxMessage) (domain.InboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == 0 {
		m.ID = r.nextID
	}
	if m.ID >= r.nextID {
		r.nextID = m.ID + 1
	}
	r.messages = append([]domain.InboxMessage{m}, r.messages...)
	return m, nil
}

func (r *InboxRepo) Get(_ context.Context, id int64) (domain.InboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.InboxMessage{}, domain.ErrNotFound
}

func (r *InboxRepo) List(_ context.Context) ([]domain.InboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.InboxMessage(nil), r.messages...), nil
}
