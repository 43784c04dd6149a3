package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noid254/nikosoko/internal/authgate"
	mw "github.com/noid254/nikosoko/internal/http/middleware"
	"github.com/noid254/nikosoko/internal/http/response"
	"github.com/noid254/nikosoko/internal/service"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/middleware"
)

// Services is everything the API exposes.
type Services struct {
	Auth       service.AuthService
	Directory  service.DirectoryService
	Contacts   service.ContactService
	Navigation service.NavigationService
	Admin      service.AdminService
	Banners    service.BannerService
	Gatepass   service.GatepassService
	Events     service.EventService
	Catalogue  service.CatalogueService
	Documents  service.DocumentService
	Inbox      service.InboxService
}

// Options configures the guards around the routes.
type Options struct {
	JWTSecret   string
	Idempotency middleware.IdempotencyStore
	Limiter     mw.Counter
	OtpLimit    int
	StartLimit  int
	LimitWindow time.Duration
}

type Handlers struct {
	svc  Services
	opts Options
}

func New(svc Services, opts Options) *Handlers {
	if opts.LimitWindow == 0 {
		opts.LimitWindow = time.Minute
	}
	return &Handlers{svc: svc, opts: opts}
}

// Routes mounts the v1 API.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	requireSession := mw.RequireSession(h.opts.JWTSecret)

	// public catalogue browsing
	r.With(h.limit("start", h.opts.StartLimit)).Post("/sessions", h.startSession)
	r.Get("/providers", h.searchProviders)
	r.Get("/categories", h.listCategories)
	r.Get("/providers/{id}/banners", h.providerBanners)
	r.Get("/providers/{id}/catalogue", h.providerCatalogue)
	r.Get("/banners", h.listBanners)
	r.Get("/events", h.listEvents)

	r.Group(func(r chi.Router) {
		r.Use(requireSession)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.currentSession)
			r.Post("/phone", h.submitPhone)
			r.With(h.limit("otp", h.opts.OtpLimit)).Post("/otp", h.sendOtp)
			r.Post("/otp/verify", h.verifyOtp)
			r.Post("/logout", h.logout)
		})

		r.Get("/providers/{id}", h.openProfile)
		r.Patch("/providers/{id}", h.updateProfile)
		r.Post("/providers/{id}/flag", h.flagProvider)
		r.Post("/providers/{id}/save", h.toggleSaved)
		r.Post("/providers/{id}/contact", h.initiateContact)
		r.Post("/providers/{id}/rating", h.rateContact)
		r.Post("/providers/{id}/dismiss", h.dismissContact)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", h.contactState)
			r.Post("/defer", h.deferRating)
		})

		r.Route("/navigation", func(r chi.Router) {
			r.Get("/", h.currentView)
			r.Post("/", h.navigate)
			r.Post("/back", h.back)
			r.Post("/admin", h.openAdmin)
			r.Delete("/admin", h.exitAdmin)
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/profile", h.myProfile)
			r.Post("/profile", h.createProfile)
			r.Get("/saved", h.savedContacts)
			r.Get("/tickets", h.myTickets)
			r.Get("/catalogue", h.myCatalogue)
			r.Post("/catalogue", h.addCatalogueItem)
			r.Delete("/catalogue/{id}", h.deleteCatalogueItem)
			r.Put("/catalogue/banner", h.setCatalogueBanner)
			r.Get("/documents", h.listDocuments)
			r.Post("/documents", h.createDocument)
			r.Get("/assets", h.getAssets)
			r.Put("/assets", h.saveAssets)
		})

		r.Post("/events", h.createEvent)
		r.With(h.idempotent).Post("/events/{id}/tickets", h.purchaseTicket)
		r.Post("/events/{id}/invitations", h.inviteGuests)
		r.Get("/events/{id}/reminder", h.eventReminder)

		r.Route("/gatepass", func(r chi.Router) {
			r.Get("/", h.gateDashboard)
			r.Post("/", h.createInvitation)
			r.Delete("/{id}", h.cancelInvitation)
			r.Post("/checkin", h.checkIn)
		})

		r.Route("/inbox", func(r chi.Router) {
			r.Get("/", h.listInbox)
			r.Get("/{id}", h.openMessage)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", h.adminUsers)
			r.Get("/flagged", h.adminFlagged)
			r.Get("/dashboard", h.adminDashboard)
			r.Post("/providers/{id}/verification", h.setVerification)
			r.Delete("/providers/{id}", h.deleteProvider)
			r.Post("/categories", h.addCategory)
			r.Delete("/categories/{name}", h.deleteCategory)
			r.Post("/broadcast", h.broadcast)
			r.Post("/banners", h.addBanner)
			r.Delete("/banners/{id}", h.deleteBanner)
		})
	})

	return r
}

func (h *Handlers) limit(scope string, requests int) func(http.Handler) http.Handler {
	if h.opts.Limiter == nil || requests <= 0 {
		return passthrough
	}
	return mw.NewRateLimiter(h.opts.Limiter, mw.RateLimitConfig{
		Requests: requests,
		Window:   h.opts.LimitWindow,
		Scope:    scope,
	}).Middleware()
}

func (h *Handlers) idempotent(next http.Handler) http.Handler {
	if h.opts.Idempotency == nil {
		return next
	}
	return middleware.Idempotency(h.opts.Idempotency)(next)
}

func passthrough(next http.Handler) http.Handler { return next }

// decode reads a JSON body into v. An empty body leaves v zero.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid json")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

// sessionResponse is the public view of a session. The OTP hash never
// leaves the server.
type sessionResponse struct {
	SessionID string            `json:"session_id"`
	Status    authgate.Status   `json:"status"`
	Phone     string            `json:"phone,omitempty"`
	Role      string            `json:"role"`
	Identity  *session.Identity `json:"identity,omitempty"`
	OtpSentAt *time.Time        `json:"otp_sent_at,omitempty"`
	Attempts  int               `json:"attempts,omitempty"`
}

type loginResponse struct {
	SessionToken string          `json:"session_token"`
	ExpiresIn    int64           `json:"expires_in"`
	Session      sessionResponse `json:"session"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	out := sessionResponse{
		SessionID: s.ID,
		Status:    s.Auth.Status,
		Phone:     s.Auth.Phone,
		Role:      s.Role(),
		Attempts:  s.Auth.Attempts,
	}
	if s.Auth.IsAuthenticated() {
		out.Identity = s.Identity
	}
	if !s.Auth.OtpSentAt.IsZero() {
		at := s.Auth.OtpSentAt
		out.OtpSentAt = &at
	}
	return out
}

func toLoginResponse(l *service.Login) loginResponse {
	return loginResponse{
		SessionToken: l.Token,
		ExpiresIn:    l.ExpiresIn,
		Session:      toSessionResponse(l.Session),
	}
}
