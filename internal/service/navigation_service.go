package service

import (
	"context"

	"github.com/noid254/nikosoko/internal/contactgate"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/internal/viewrouter"
)

// protectedViews need a logged-in session; adminViews need a superadmin.
var (
	protectedViews = map[viewrouter.View]bool{
		viewrouter.Profile:          true,
		viewrouter.Signup:           true,
		viewrouter.InvoiceHub:       true,
		viewrouter.Invoice:          true,
		viewrouter.QuoteGenerator:   true,
		viewrouter.ReceiptGenerator: true,
		viewrouter.MyDocuments:      true,
		viewrouter.Assets:           true,
		viewrouter.Events:           true,
		viewrouter.Gatepass:         true,
		viewrouter.Contacts:         true,
		viewrouter.MyTickets:        true,
		viewrouter.Catalogue:        true,
		viewrouter.Inbox:            true,
	}
	adminViews = map[viewrouter.View]bool{
		viewrouter.Admin:   true,
		viewrouter.Flagged: true,
	}
)

// Navigation is the view state after a move, plus the rating prompt the
// move may have opened.
type Navigation struct {
	View            viewrouter.View      `json:"view"`
	SelectedProfile *int64               `json:"selected_profile,omitempty"`
	AdminPage       viewrouter.AdminPage `json:"admin_page"`
	RatingPrompt    *contactgate.Contact `json:"rating_prompt,omitempty"`
	LimitReached    bool                 `json:"limit_reached"`
}

type NavigationService interface {
	Current(ctx context.Context, sid string) (*Navigation, error)
	Navigate(ctx context.Context, sid string, to viewrouter.View) (*Navigation, error)
	OpenAdmin(ctx context.Context, sid string, page viewrouter.AdminPage) (*Navigation, error)
	ExitAdmin(ctx context.Context, sid string) (*Navigation, error)
	Back(ctx context.Context, sid string) (*Navigation, error)
}

type navigationService struct {
	sessions session.Store
}

func NewNavigationService(sessions session.Store) NavigationService {
	return &navigationService{sessions: sessions}
}

func (s *navigationService) Current(ctx context.Context, sid string) (*Navigation, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	return navigation(sess), nil
}

// Navigate moves to a top-level view. Profiles are opened through the
// directory so a provider is selected.
func (s *navigationService) Navigate(ctx context.Context, sid string, to viewrouter.View) (*Navigation, error) {
	if to == viewrouter.Profile {
		return nil, domain.ValidationErrors{{Field: "view", Message: "open a profile by provider id"}}
	}
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if err := authorizeView(sess, to); err != nil {
			return err
		}
		if to == viewrouter.Admin {
			sess.View.OpenAdmin(sess.View.AdminPage)
			return nil
		}
		sess.View.Navigate(to)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return navigation(sess), nil
}

func (s *navigationService) OpenAdmin(ctx context.Context, sid string, page viewrouter.AdminPage) (*Navigation, error) {
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if err := requireSuperadmin(sess); err != nil {
			return err
		}
		sess.View.OpenAdmin(page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return navigation(sess), nil
}

func (s *navigationService) ExitAdmin(ctx context.Context, sid string) (*Navigation, error) {
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		sess.View.ExitAdmin()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return navigation(sess), nil
}

// Back leaves the current view. Leaving a contacted provider's profile
// opens the rating prompt for it first.
func (s *navigationService) Back(ctx context.Context, sid string) (*Navigation, error) {
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if sess.View.Current == viewrouter.Profile && sess.View.SelectedProfile != nil {
			sess.Contacts.InterceptBack(*sess.View.SelectedProfile)
		}
		sess.View.Back()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return navigation(sess), nil
}

func authorizeView(sess *session.Session, v viewrouter.View) error {
	switch {
	case adminViews[v]:
		return requireSuperadmin(sess)
	case protectedViews[v]:
		return requireLogin(sess)
	}
	return nil
}

func navigation(sess *session.Session) *Navigation {
	return &Navigation{
		View:            sess.View.Current,
		SelectedProfile: sess.View.SelectedProfile,
		AdminPage:       sess.View.AdminPage,
		RatingPrompt:    sess.Contacts.Pending,
		LimitReached:    sess.Contacts.LimitReached,
	}
}
