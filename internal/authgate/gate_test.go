package authgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noid254/nikosoko/internal/domain"
)

type recordingSender struct {
	phone, code string
	err         error
	block       bool
}

func (r *recordingSender) SendOtp(ctx context.Context, phone, code string) error {
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	r.phone, r.code = phone, code
	return r.err
}

func newGate(cfg Config, sender OtpSender) *Gate {
	cfg.HashCost = bcrypt.MinCost
	return New(cfg, sender)
}

func login(t *testing.T, g *Gate, s *State, phone string) {
	t.Helper()
	require.NoError(t, s.SubmitPhone(phone))
	require.NoError(t, s.CanSendOtp())
	hash, err := g.SendOtp(context.Background(), s.Phone)
	require.NoError(t, err)
	s.OtpSent(hash, time.Now())
}

func TestSubmitPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"0712345678", "712345678", nil},
		{"712345678", "712345678", nil},
		{"71234567", "", domain.ErrInvalidPhone},
		{"", "", domain.ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s State
			err := s.SubmitPhone(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.NotEqual(t, PhoneEntered, s.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PhoneEntered, s.Status)
			assert.Equal(t, tt.want, s.Phone)
		})
	}
}

func TestFixedCodeFlow(t *testing.T) {
	sender := &recordingSender{}
	g := newGate(Config{Mode: "fixed", FixedCode: "1234"}, sender)

	var s State
	login(t, g, &s, "0712345678")
	assert.Equal(t, OtpPending, s.Status)
	assert.Equal(t, "712345678", sender.phone)
	assert.Equal(t, "1234", sender.code)

	assert.ErrorIs(t, g.VerifyOtp(&s, "0000"), domain.ErrInvalidOtp)
	assert.Equal(t, OtpPending, s.Status)

	require.NoError(t, g.VerifyOtp(&s, "1234"))
	assert.True(t, s.IsAuthenticated())
	assert.Empty(t, s.OtpHash)

	assert.ErrorIs(t, s.SubmitPhone("0712345678"), domain.ErrInvalidTransition)
}

func TestUnlimitedAttemptsByDefault(t *testing.T) {
	g := newGate(Config{Mode: "fixed"}, &recordingSender{})
	var s State
	login(t, g, &s, "712345678")

	for i := 0; i < 20; i++ {
		require.ErrorIs(t, g.VerifyOtp(&s, "9999"), domain.ErrInvalidOtp)
	}
	assert.NoError(t, g.VerifyOtp(&s, "1234"))
}

func TestAttemptLimit(t *testing.T) {
	g := newGate(Config{Mode: "fixed", MaxAttempts: 3}, &recordingSender{})
	var s State
	login(t, g, &s, "712345678")

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, g.VerifyOtp(&s, "9999"), domain.ErrInvalidOtp)
	}
	assert.ErrorIs(t, g.VerifyOtp(&s, "1234"), domain.ErrOtpLocked)

	// resending resets the counter
	hash, err := g.SendOtp(context.Background(), s.Phone)
	require.NoError(t, err)
	s.OtpSent(hash, time.Now())
	assert.NoError(t, g.VerifyOtp(&s, "1234"))
}

func TestSmsModeUsesRandomCode(t *testing.T) {
	sender := &recordingSender{}
	g := newGate(Config{Mode: "sms"}, sender)
	var s State
	login(t, g, &s, "712345678")

	require.Len(t, sender.code, 4)
	require.NoError(t, g.VerifyOtp(&s, sender.code))
}

func TestVerifyWithoutOtp(t *testing.T) {
	g := newGate(Config{}, &recordingSender{})
	var s State
	require.NoError(t, s.SubmitPhone("712345678"))
	assert.ErrorIs(t, g.VerifyOtp(&s, "1234"), domain.ErrOtpNotRequested)
}

func TestCanSendOtpRequiresPhone(t *testing.T) {
	var s State
	assert.ErrorIs(t, s.CanSendOtp(), domain.ErrInvalidTransition)
}

func TestSendOtpTimesOut(t *testing.T) {
	g := newGate(Config{SendTimeout: 20 * time.Millisecond}, &recordingSender{block: true})
	_, err := g.SendOtp(context.Background(), "712345678")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendOtpFailure(t *testing.T) {
	boom := errors.New("gateway down")
	g := newGate(Config{}, &recordingSender{err: boom})
	_, err := g.SendOtp(context.Background(), "712345678")
	assert.ErrorIs(t, err, boom)
}

func TestCodeExpiry(t *testing.T) {
	g := newGate(Config{CodeTTL: time.Minute}, &recordingSender{})
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	var s State
	require.NoError(t, s.SubmitPhone("712345678"))
	hash, err := g.SendOtp(context.Background(), s.Phone)
	require.NoError(t, err)
	s.OtpSent(hash, now)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, g.VerifyOtp(&s, "1234"), domain.ErrInvalidOtp)
}

func TestIsSuperadmin(t *testing.T) {
	g := newGate(Config{SuperadminPhone: "0723119356"}, &recordingSender{})
	assert.True(t, g.IsSuperadmin("723119356"))
	assert.False(t, g.IsSuperadmin("712345678"))
}

func TestLogout(t *testing.T) {
	g := newGate(Config{}, &recordingSender{})
	var s State
	login(t, g, &s, "712345678")
	require.NoError(t, g.VerifyOtp(&s, "1234"))

	s.Logout()
	assert.Equal(t, LoggedOut, s.Status)
	assert.Empty(t, s.Phone)
}
