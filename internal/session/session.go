// Package session keeps the per-visitor state of the marketplace: login
// progress, the bound identity, the contact gate, navigation and the small
// collections a visitor builds up (saved contacts, tickets, read messages).
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noid254/nikosoko/internal/authgate"
	"github.com/noid254/nikosoko/internal/contactgate"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/viewrouter"
	"github.com/noid254/nikosoko/pkg/auth"
)

var ErrNotFound = errors.New("session not found")

// Identity is who the session acts as once logged in. ProviderID is set for
// every identity; HasProfile is false for a placeholder that has not signed
// up yet.
type Identity struct {
	ProviderID int64  `json:"provider_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Whatsapp   string `json:"whatsapp"`
	Role       string `json:"role"`
	HasProfile bool   `json:"has_profile"`
}

type Session struct {
	ID            string                `json:"id"`
	Auth          authgate.State        `json:"auth"`
	Identity      *Identity             `json:"identity,omitempty"`
	Contacts      contactgate.State     `json:"contacts"`
	View          viewrouter.State      `json:"view"`
	SavedContacts []int64               `json:"saved_contacts"`
	Flagged       map[int64]bool        `json:"flagged"`
	Tickets       []domain.Ticket       `json:"tickets"`
	Assets        domain.BusinessAssets `json:"assets"`
	ReadInbox     map[int64]bool        `json:"read_inbox"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func New(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Auth:      authgate.State{Status: authgate.LoggedOut},
		View:      viewrouter.New(),
		Flagged:   map[int64]bool{},
		Assets:    domain.DefaultBusinessAssets(),
		ReadInbox: map[int64]bool{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Role is visitor until the session logs in.
func (s *Session) Role() string {
	if s.Identity == nil || !s.Auth.IsAuthenticated() {
		return auth.RoleVisitor
	}
	return s.Identity.Role
}

func (s *Session) IsSuperadmin() bool { return s.Role() == auth.RoleSuperadmin }

// ProviderID returns the bound provider id, or 0 when logged out.
func (s *Session) ProviderID() int64 {
	if s.Identity == nil || !s.Auth.IsAuthenticated() {
		return 0
	}
	return s.Identity.ProviderID
}

func (s *Session) IsSaved(providerID int64) bool {
	for _, id := range s.SavedContacts {
		if id == providerID {
			return true
		}
	}
	return false
}

// ToggleSaved adds or removes providerID and reports whether it is saved
// afterwards.
func (s *Session) ToggleSaved(providerID int64) bool {
	for i, id := range s.SavedContacts {
		if id == providerID {
			s.SavedContacts = append(s.SavedContacts[:i], s.SavedContacts[i+1:]...)
			return false
		}
	}
	s.SavedContacts = append(s.SavedContacts, providerID)
	return true
}

// Logout clears the identity, its tickets and assets, and the view. The
// contact gate, saved contacts and flags belong to the session and survive
// so a relogin cannot skip a pending rating.
func (s *Session) Logout() {
	s.Auth.Logout()
	s.Identity = nil
	s.View.Reset()
	s.Tickets = nil
	s.Assets = domain.DefaultBusinessAssets()
}

// Store persists sessions. Update runs fn against the latest copy and
// stores the result only when fn returns nil; concurrent updates of one
// session are serialized.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn func(s *Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}
