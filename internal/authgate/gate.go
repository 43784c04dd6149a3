// Package authgate runs the phone and one-time-password login flow.
package authgate

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/utils"
)

type Status string

const (
	LoggedOut     Status = "logged_out"
	PhoneEntered  Status = "phone_entered"
	OtpPending    Status = "otp_pending"
	Authenticated Status = "authenticated"
)

// OtpSender delivers a one-time code to a normalized local phone number.
type OtpSender interface {
	SendOtp(ctx context.Context, phone, code string) error
}

// State is the per-session login progress.
type State struct {
	Status    Status    `json:"status"`
	Phone     string    `json:"phone,omitempty"`
	OtpHash   string    `json:"otp_hash,omitempty"`
	OtpSentAt time.Time `json:"otp_sent_at,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
}

func (s State) IsAuthenticated() bool {
	return s.Status == Authenticated
}

// SubmitPhone validates and stores the number, stripping a leading 0.
// Allowed from any state except Authenticated; a new number restarts the flow.
func (s *State) SubmitPhone(raw string) error {
	if s.Status == Authenticated {
		return domain.ErrInvalidTransition
	}
	phone, ok := utils.NormalizePhone(raw)
	if !ok {
		return domain.ErrInvalidPhone
	}
	*s = State{Status: PhoneEntered, Phone: phone}
	return nil
}

// CanSendOtp reports whether an OTP may be (re)sent now.
func (s State) CanSendOtp() error {
	if s.Status != PhoneEntered && s.Status != OtpPending {
		return domain.ErrInvalidTransition
	}
	return nil
}

// OtpSent records a delivered code's hash and moves to OtpPending.
func (s *State) OtpSent(hash string, at time.Time) {
	s.Status = OtpPending
	s.OtpHash = hash
	s.OtpSentAt = at
	s.Attempts = 0
}

// Logout drops all login progress.
func (s *State) Logout() {
	*s = State{Status: LoggedOut}
}

type Config struct {
	Mode            string // "fixed" or "sms"
	FixedCode       string
	MaxAttempts     int // 0 disables the limit
	SendTimeout     time.Duration
	CodeTTL         time.Duration // 0 means codes never expire
	SuperadminPhone string
	HashCost        int
}

// Gate issues and checks one-time codes. It holds no session state.
type Gate struct {
	cfg    Config
	sender OtpSender
	now    func() time.Time
}

func New(cfg Config, sender OtpSender) *Gate {
	if cfg.FixedCode == "" {
		cfg.FixedCode = "1234"
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if normalized, ok := utils.NormalizePhone(cfg.SuperadminPhone); ok {
		cfg.SuperadminPhone = normalized
	}
	return &Gate{cfg: cfg, sender: sender, now: time.Now}
}

// SendOtp creates a code for phone, delivers it within the configured
// timeout and returns the hash to store in the session.
func (g *Gate) SendOtp(ctx context.Context, phone string) (string, error) {
	code := g.cfg.FixedCode
	if g.cfg.Mode == "sms" {
		var err error
		if code, err = randomCode(4); err != nil {
			return "", fmt.Errorf("failed to generate otp: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), g.cfg.HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash otp: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.SendTimeout)
	defer cancel()
	if err := g.sender.SendOtp(ctx, phone, code); err != nil {
		return "", fmt.Errorf("failed to deliver otp: %w", err)
	}
	return string(hash), nil
}

// VerifyOtp checks code against the pending hash and authenticates the
// state on success. Failed attempts are counted against MaxAttempts.
func (g *Gate) VerifyOtp(s *State, code string) error {
	if s.Status != OtpPending || s.OtpHash == "" {
		return domain.ErrOtpNotRequested
	}
	if g.cfg.MaxAttempts > 0 && s.Attempts >= g.cfg.MaxAttempts {
		return domain.ErrOtpLocked
	}
	if g.cfg.CodeTTL > 0 && g.now().Sub(s.OtpSentAt) > g.cfg.CodeTTL {
		s.Attempts++
		return domain.ErrInvalidOtp
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.OtpHash), []byte(code)); err != nil {
		s.Attempts++
		return domain.ErrInvalidOtp
	}

	s.Status = Authenticated
	s.OtpHash = ""
	s.Attempts = 0
	return nil
}

// IsSuperadmin reports whether a normalized phone holds the elevated role.
func (g *Gate) IsSuperadmin(phone string) bool {
	return g.cfg.SuperadminPhone != "" && phone == g.cfg.SuperadminPhone
}

func randomCode(digits int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < digits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
