package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mailersend/mailersend-go"

	"github.com/noid254/nikosoko/internal/utils"
)

var ErrDisabled = errors.New("sms disabled (missing MAILERSEND_API_KEY or SMS_FROM)")

// MailerSendSender sends texts through the MailerSend SMS API.
type MailerSendSender struct {
	client  *mailersend.Mailersend
	from    string
	enabled bool
}

func NewMailerSend(apiKey, from string) *MailerSendSender {
	m := &MailerSendSender{
		enabled: apiKey != "" && from != "",
		from:    from,
	}
	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *MailerSendSender) SendOtp(ctx context.Context, phone, code string) error {
	return m.SendText(ctx, []string{phone}, otpText(code))
}

func (m *MailerSendSender) SendText(ctx context.Context, phones []string, text string) error {
	if !m.enabled {
		return ErrDisabled
	}
	to := make([]string, 0, len(phones))
	for _, p := range phones {
		to = append(to, "+"+utils.WhatsAppNumber(p))
	}

	msg := m.client.Sms.NewMessage()
	msg.SetFrom(m.from)
	msg.SetTo(to)
	msg.SetText(text)

	res, err := m.client.Sms.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
