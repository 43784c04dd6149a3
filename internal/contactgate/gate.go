// Package contactgate limits how many providers a session may contact
// before it has to rate one of them.
package contactgate

import (
	"time"

	"github.com/noid254/nikosoko/internal/domain"
)

// MaxUnrated is how many contacts may stay unrated before further contact
// actions are refused.
const MaxUnrated = 5

// Contact is a provider the session reached out to and has not rated yet.
type Contact struct {
	ProviderID  int64     `json:"provider_id"`
	Name        string    `json:"name"`
	ContactedAt time.Time `json:"contacted_at"`
}

// State is the per-session gate. Unrated keeps first-contact order and
// never holds the same provider twice.
type State struct {
	Unrated      []Contact `json:"unrated"`
	Pending      *Contact  `json:"pending,omitempty"`
	LimitReached bool      `json:"limit_reached"`
}

func (s *State) indexOf(providerID int64) int {
	for i, c := range s.Unrated {
		if c.ProviderID == providerID {
			return i
		}
	}
	return -1
}

func (s *State) Count() int {
	return len(s.Unrated)
}

func (s *State) IsUnrated(providerID int64) bool {
	return s.indexOf(providerID) >= 0
}

// InitiateContact records c as an unrated contact. When MaxUnrated contacts
// are already waiting it refuses with ErrRateLimitReached and points
// Pending at the oldest one, which must be rated before anything else.
func (s *State) InitiateContact(authenticated bool, c Contact) error {
	if !authenticated {
		return domain.ErrAuthRequired
	}
	if len(s.Unrated) >= MaxUnrated {
		oldest := s.Unrated[0]
		s.Pending = &oldest
		s.LimitReached = true
		return domain.ErrRateLimitReached
	}
	if s.indexOf(c.ProviderID) < 0 {
		s.Unrated = append(s.Unrated, c)
	}
	return nil
}

// SubmitRating resolves a contact with a 1 to 5 star rating.
func (s *State) SubmitRating(providerID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return domain.ErrInvalidRating
	}
	s.remove(providerID)
	s.Pending = nil
	s.LimitReached = false
	return nil
}

// DismissAsNeverHappened drops a contact without a rating.
func (s *State) DismissAsNeverHappened(providerID int64) {
	s.remove(providerID)
	s.Pending = nil
	if len(s.Unrated) < MaxUnrated {
		s.LimitReached = false
	}
}

// InterceptBack runs when the session leaves a provider's profile. If that
// provider was contacted and no rating prompt is open yet, it becomes the
// pending prompt. Reports whether a prompt was opened.
func (s *State) InterceptBack(profileID int64) bool {
	if s.Pending != nil {
		return false
	}
	i := s.indexOf(profileID)
	if i < 0 {
		return false
	}
	c := s.Unrated[i]
	s.Pending = &c
	return true
}

// Defer closes the rating prompt without resolving it ("Later"). A prompt
// forced by the limit cannot be deferred.
func (s *State) Defer() error {
	if s.LimitReached {
		return domain.ErrRatingRequired
	}
	s.Pending = nil
	return nil
}

func (s *State) remove(providerID int64) {
	i := s.indexOf(providerID)
	if i < 0 {
		return
	}
	s.Unrated = append(s.Unrated[:i], s.Unrated[i+1:]...)
}
