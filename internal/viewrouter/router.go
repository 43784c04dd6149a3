// Package viewrouter models the client's screens as a finite state machine
// with a fixed back-navigation table.
package viewrouter

import (
	"github.com/noid254/nikosoko/internal/domain"
)

type View string

const (
	Main             View = "main"
	Profile          View = "profile"
	Signup           View = "signup"
	Admin            View = "admin"
	InvoiceHub       View = "invoiceHub"
	Invoice          View = "invoice"
	QuoteGenerator   View = "quoteGenerator"
	ReceiptGenerator View = "receiptGenerator"
	MyDocuments      View = "myDocuments"
	Assets           View = "assets"
	Events           View = "events"
	Gatepass         View = "gatepass"
	Contacts         View = "contacts"
	Flagged          View = "flagged"
	MyTickets        View = "myTickets"
	Catalogue        View = "catalogue"
	Search           View = "search"
	Inbox            View = "inbox"
)

var allViews = []View{
	Main, Profile, Signup, Admin, InvoiceHub, Invoice, QuoteGenerator,
	ReceiptGenerator, MyDocuments, Assets, Events, Gatepass, Contacts,
	Flagged, MyTickets, Catalogue, Search, Inbox,
}

func Views() []View {
	return append([]View(nil), allViews...)
}

func ParseView(s string) (View, error) {
	for _, v := range allViews {
		if string(v) == s {
			return v, nil
		}
	}
	return "", domain.ErrInvalidView
}

// backTarget maps every view to the view back() lands on. Views missing
// from the table go to Main.
var backTarget = map[View]View{
	Invoice:          InvoiceHub,
	QuoteGenerator:   InvoiceHub,
	ReceiptGenerator: InvoiceHub,
	MyDocuments:      InvoiceHub,
	Assets:           InvoiceHub,

	InvoiceHub: Main,
	Search:     Main,
	Inbox:      Main,
}

// BackTarget reports where back() leads from v, without side effects.
func BackTarget(v View) View {
	if v == Main {
		return Main
	}
	if to, ok := backTarget[v]; ok {
		return to
	}
	return Main
}

// keepsSelection lists the views whose back() leaves the selected profile
// alone: the document hub group returns early in the client.
func keepsSelection(v View) bool {
	_, ok := backTarget[v]
	return ok
}

// AdminPage names the section the admin dashboard opens on.
type AdminPage string

const (
	AdminDashboard  AdminPage = "Dashboard"
	AdminUsers      AdminPage = "Users"
	AdminAnalytics  AdminPage = "Analytics"
	AdminAppearance AdminPage = "Appearance"
	AdminBroadcast  AdminPage = "Broadcast"
	AdminCategories AdminPage = "Categories"
)

func ParseAdminPage(s string) (AdminPage, bool) {
	switch AdminPage(s) {
	case AdminDashboard, AdminUsers, AdminAnalytics, AdminAppearance, AdminBroadcast, AdminCategories:
		return AdminPage(s), true
	default:
		return "", false
	}
}

// State is the per-session navigation state.
type State struct {
	Current         View      `json:"current"`
	SelectedProfile *int64    `json:"selected_profile,omitempty"`
	AdminPage       AdminPage `json:"admin_page"`
}

func New() State {
	return State{Current: Main, AdminPage: AdminDashboard}
}

// Navigate moves to v unconditionally. Authorization is the caller's job.
func (s *State) Navigate(v View) {
	s.Current = v
}

// OpenProfile selects a provider and shows its profile.
func (s *State) OpenProfile(providerID int64) {
	id := providerID
	s.SelectedProfile = &id
	s.Current = Profile
}

// OpenAdmin enters the dashboard on the given page.
func (s *State) OpenAdmin(page AdminPage) {
	if page == "" {
		page = AdminDashboard
	}
	s.AdminPage = page
	s.Current = Admin
}

// Back follows the fixed table. Leaving admin behaves like ExitAdmin.
// From Main it does nothing.
func (s *State) Back() View {
	from := s.Current
	switch {
	case from == Main:
		return Main
	case from == Admin:
		s.ExitAdmin()
		return s.Current
	case keepsSelection(from):
		s.Current = BackTarget(from)
		return s.Current
	}
	s.SelectedProfile = nil
	s.Current = BackTarget(from)
	return s.Current
}

// ExitAdmin leaves the dashboard and resets the page it reopens on.
func (s *State) ExitAdmin() {
	s.AdminPage = AdminDashboard
	s.Current = Main
}

// ClearSelection forgets the selected profile, e.g. when it is deleted.
func (s *State) ClearSelection() {
	s.SelectedProfile = nil
}

// Reset returns to the initial state, used on logout.
func (s *State) Reset() {
	*s = New()
}
