package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noid254/nikosoko/internal/authgate"
	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/internal/utils"
	"github.com/noid254/nikosoko/pkg/auth"
	"github.com/noid254/nikosoko/pkg/config"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
	"github.com/noid254/nikosoko/pkg/metrics"
)

const placeholderName = "New User"

// Login carries a session together with a freshly signed token.
type Login struct {
	Session   *session.Session
	Token     string
	ExpiresIn int64
}

type AuthService interface {
	Start(ctx context.Context) (*Login, error)
	Session(ctx context.Context, sid string) (*session.Session, error)
	SubmitPhone(ctx context.Context, sid, phone string) (*session.Session, error)
	SendOtp(ctx context.Context, sid string) (*session.Session, error)
	VerifyOtp(ctx context.Context, sid, code string) (*Login, error)
	Logout(ctx context.Context, sid string) (*Login, error)
}

type authService struct {
	sessions    session.Store
	providers   repo.ProviderRepository
	gate        *authgate.Gate
	seedTickets []domain.Ticket
	notifier    notifier
	metrics     *metrics.Metrics
	config      config.AuthConfig
	now         Clock
}

func NewAuthService(
	sessions session.Store,
	providers repo.ProviderRepository,
	gate *authgate.Gate,
	seedTickets []domain.Ticket,
	eventBus events.Publisher,
	m *metrics.Metrics,
	cfg config.AuthConfig,
) AuthService {
	return &authService{
		sessions:    sessions,
		providers:   providers,
		gate:        gate,
		seedTickets: seedTickets,
		notifier:    notifier{bus: eventBus, metrics: m},
		metrics:     m,
		config:      cfg,
		now:         time.Now,
	}
}

func (s *authService) Start(ctx context.Context) (*Login, error) {
	sess := session.New(s.now().UTC())
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s.issue(sess)
}

func (s *authService) Session(ctx context.Context, sid string) (*session.Session, error) {
	return s.sessions.Get(ctx, sid)
}

func (s *authService) SubmitPhone(ctx context.Context, sid, phone string) (*session.Session, error) {
	return s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		return sess.Auth.SubmitPhone(phone)
	})
}

// SendOtp delivers outside the session lock and records the hash only if
// the session still waits for a code on the same phone.
func (s *authService) SendOtp(ctx context.Context, sid string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := sess.Auth.CanSendOtp(); err != nil {
		return nil, err
	}
	phone := sess.Auth.Phone

	hash, err := s.gate.SendOtp(ctx, phone)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send otp", "error", err, "session_id", sid)
		return nil, err
	}

	return s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if sess.Auth.Phone != phone {
			return domain.ErrInvalidTransition
		}
		if err := sess.Auth.CanSendOtp(); err != nil {
			return err
		}
		sess.Auth.OtpSent(hash, s.now().UTC())
		return nil
	})
}

func (s *authService) VerifyOtp(ctx context.Context, sid, code string) (*Login, error) {
	current, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	attempt := current.Auth
	verifyErr := s.gate.VerifyOtp(&attempt, code)
	if errors.Is(verifyErr, domain.ErrOtpNotRequested) {
		return nil, verifyErr
	}

	var identity *session.Identity
	if verifyErr == nil {
		if identity, err = s.bind(ctx, attempt.Phone); err != nil {
			return nil, err
		}
	}

	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if sess.Auth.Status != authgate.OtpPending ||
			sess.Auth.OtpHash != current.Auth.OtpHash ||
			sess.Auth.Attempts != current.Auth.Attempts {
			return domain.ErrInvalidTransition
		}
		sess.Auth = attempt
		if identity == nil {
			return nil
		}
		sess.Identity = identity
		if identity.HasProfile {
			sess.Tickets = append([]domain.Ticket(nil), s.seedTickets...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verifyErr != nil {
		s.countLogin(verifyErr)
		return nil, verifyErr
	}
	s.countLogin(nil)

	s.notifier.publish(ctx, events.SessionLogin, events.SessionEvent{
		SessionID:  sid,
		ProviderID: identity.ProviderID,
		Role:       identity.Role,
		At:         s.now().UTC(),
	})
	logger.InfoContext(ctx, "Session logged in", "session_id", sid, "provider_id", identity.ProviderID, "role", identity.Role)
	return s.issue(sess)
}

// bind resolves who a verified phone belongs to: the matching provider, or
// a placeholder with a reserved provider id.
func (s *authService) bind(ctx context.Context, phone string) (*session.Identity, error) {
	role := auth.RoleUser
	if s.gate.IsSuperadmin(phone) {
		role = auth.RoleSuperadmin
	}

	p, err := s.providers.GetByPhone(ctx, phone)
	switch {
	case err == nil:
		return &session.Identity{
			ProviderID: p.ID,
			Name:       p.Name,
			Phone:      p.Phone,
			Whatsapp:   p.Whatsapp,
			Role:       role,
			HasProfile: true,
		}, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to look up provider: %w", err)
	}

	id, err := s.providers.ReserveID(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve provider id: %w", err)
	}
	return &session.Identity{
		ProviderID: id,
		Name:       placeholderName,
		Phone:      phone,
		Whatsapp:   utils.WhatsAppNumber(phone),
		Role:       role,
	}, nil
}

func (s *authService) Logout(ctx context.Context, sid string) (*Login, error) {
	var providerID int64
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		providerID = sess.ProviderID()
		sess.Logout()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.publish(ctx, events.SessionLogout, events.SessionEvent{
		SessionID:  sid,
		ProviderID: providerID,
		Role:       auth.RoleVisitor,
		At:         s.now().UTC(),
	})
	return s.issue(sess)
}

func (s *authService) issue(sess *session.Session) (*Login, error) {
	var sub int64
	var phone string
	if sess.Identity != nil && sess.Auth.IsAuthenticated() {
		sub = sess.Identity.ProviderID
		phone = sess.Identity.Phone
	}
	token, err := auth.NewSessionToken(sess.ID, sub, phone, sess.Role(), s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &Login{
		Session:   sess,
		Token:     token,
		ExpiresIn: int64(s.config.SessionTTL.Seconds()),
	}, nil
}

func (s *authService) countLogin(err error) {
	if s.metrics == nil {
		return
	}
	result := "success"
	switch {
	case errors.Is(err, domain.ErrOtpLocked):
		result = "locked"
	case err != nil:
		result = "failure"
	}
	s.metrics.Logins.WithLabelValues(result).Inc()
}
