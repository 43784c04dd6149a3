package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/internal/utils"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
	"github.com/noid254/nikosoko/pkg/metrics"
)

const (
	unknownHost     = "Unknown Host"
	accessCodeFloor = 100000
	accessCodeSpan  = 900000
	codeAttempts    = 5
)

// GateDashboard is what the gate-pass screen shows for a session's role.
type GateDashboard struct {
	Role        domain.GateRole     `json:"role"`
	Invitations []domain.Invitation `json:"invitations"`
}

type GatepassService interface {
	Dashboard(ctx context.Context, sid string) (*GateDashboard, error)
	Create(ctx context.Context, sid string, req domain.InvitationRequest) (domain.Invitation, error)
	Cancel(ctx context.Context, sid, id string) (domain.Invitation, error)
	CheckIn(ctx context.Context, sid, code string) (domain.Invitation, error)
}

type gatepassService struct {
	sessions    session.Store
	invitations repo.InvitationRepository
	notifier    notifier
	now         Clock
}

func NewGatepassService(
	sessions session.Store,
	invitations repo.InvitationRepository,
	eventBus events.Publisher,
	m *metrics.Metrics,
) GatepassService {
	return &gatepassService{
		sessions:    sessions,
		invitations: invitations,
		notifier:    notifier{bus: eventBus, metrics: m},
		now:         time.Now,
	}
}

func gateRole(sess *session.Session) domain.GateRole {
	switch {
	case sess.IsSuperadmin():
		return domain.GateSuperhost
	case sess.Auth.IsAuthenticated():
		return domain.GateHost
	default:
		return domain.GateVisitor
	}
}

// Dashboard lists every invitation for a superhost, the host's own for a
// host and nothing for a visitor.
func (s *gatepassService) Dashboard(ctx context.Context, sid string) (*GateDashboard, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	out := &GateDashboard{Role: gateRole(sess), Invitations: []domain.Invitation{}}
	switch out.Role {
	case domain.GateSuperhost:
		out.Invitations, err = s.invitations.List(ctx)
	case domain.GateHost:
		out.Invitations, err = s.invitations.ListByHost(ctx, sess.ProviderID())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return out, nil
}

func (s *gatepassService) Create(ctx context.Context, sid string, req domain.InvitationRequest) (domain.Invitation, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return domain.Invitation{}, err
	}
	if err := requireLogin(sess); err != nil {
		return domain.Invitation{}, err
	}

	now := s.now().UTC()
	phone := strings.TrimSpace(req.VisitorPhone)
	date := strings.TrimSpace(req.VisitDate)
	var errs domain.ValidationErrors
	if !utils.IsValidVisitorPhone(phone) {
		errs.Add("visitor_phone", "must be 9 or 10 digits")
	}
	if date == "" {
		date = now.Format(domain.DateLayout)
	} else if _, err := time.Parse(domain.DateLayout, date); err != nil {
		errs.Add("visit_date", "must be YYYY-MM-DD")
	}
	if err := errs.Err(); err != nil {
		return domain.Invitation{}, err
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return domain.Invitation{}, err
	}

	hostName := unknownHost
	if sess.Identity.Name != "" {
		hostName = sess.Identity.Name
	}
	inv := domain.Invitation{
		ID:           "inv-" + uuid.NewString(),
		HostID:       sess.ProviderID(),
		HostName:     hostName,
		VisitorPhone: phone,
		VisitDate:    date,
		Status:       domain.InvitationActive,
		AccessCode:   code,
		CreatedAt:    now,
	}
	if err := s.invitations.Add(ctx, inv); err != nil {
		return domain.Invitation{}, fmt.Errorf("failed to save invitation: %w", err)
	}

	s.publish(ctx, events.InvitationCreated, inv)
	logger.InfoContext(ctx, "Invitation created", "invitation_id", inv.ID, "host_id", inv.HostID)
	return inv, nil
}

// Cancel is allowed to the inviting host and to a superadmin.
func (s *gatepassService) Cancel(ctx context.Context, sid, id string) (domain.Invitation, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return domain.Invitation{}, err
	}
	if err := requireLogin(sess); err != nil {
		return domain.Invitation{}, err
	}
	inv, err := s.invitations.Update(ctx, id, func(inv *domain.Invitation) error {
		if inv.HostID != sess.ProviderID() && !sess.IsSuperadmin() {
			return domain.ErrForbidden
		}
		return inv.Cancel()
	})
	if err != nil {
		return domain.Invitation{}, err
	}
	s.publish(ctx, events.InvitationCanceled, inv)
	return inv, nil
}

// CheckIn consumes the active invitation holding code. Only its host or a
// superadmin may admit the visitor.
func (s *gatepassService) CheckIn(ctx context.Context, sid, code string) (domain.Invitation, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return domain.Invitation{}, err
	}
	if err := requireLogin(sess); err != nil {
		return domain.Invitation{}, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Invitation{}, domain.ValidationErrors{{Field: "access_code", Message: "is required"}}
	}
	found, err := s.invitations.FindActiveByCode(ctx, code)
	if err != nil {
		return domain.Invitation{}, err
	}
	inv, err := s.invitations.Update(ctx, found.ID, func(inv *domain.Invitation) error {
		if inv.HostID != sess.ProviderID() && !sess.IsSuperadmin() {
			return domain.ErrForbidden
		}
		return inv.CheckIn()
	})
	if err != nil {
		return domain.Invitation{}, err
	}
	logger.InfoContext(ctx, "Visitor checked in", "invitation_id", inv.ID)
	return inv, nil
}

// uniqueCode draws a six digit code no active invitation is using.
func (s *gatepassService) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(accessCodeSpan))
		if err != nil {
			return "", fmt.Errorf("failed to generate access code: %w", err)
		}
		code := fmt.Sprintf("%d", n.Int64()+accessCodeFloor)
		_, err = s.invitations.FindActiveByCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check access code: %w", err)
		}
	}
	return "", fmt.Errorf("failed to generate access code: %w", domain.ErrConflict)
}

func (s *gatepassService) publish(ctx context.Context, subject string, inv domain.Invitation) {
	s.notifier.publish(ctx, subject, events.InvitationEvent{
		InvitationID: inv.ID,
		HostID:       inv.HostID,
		VisitorPhone: inv.VisitorPhone,
		VisitDate:    inv.VisitDate,
		Status:       string(inv.Status),
		At:           s.now().UTC(),
	})
}
