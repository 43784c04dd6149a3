package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/noid254/nikosoko/pkg/logger"
)

// DevSender prints messages instead of sending them.
type DevSender struct{}

func NewDevSender() *DevSender {
	return &DevSender{}
}

func (d *DevSender) SendOtp(ctx context.Context, phone, code string) error {
	logger.InfoContext(ctx, "[DEV SMS] OTP", "to", phone, "code", code)

	fmt.Printf("\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"OTP SMS (DEV MODE)\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n" +
		"To: %s\n" +
		"%s\n" +
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		phone, otpText(code))
	return nil
}

func (d *DevSender) SendText(ctx context.Context, phones []string, text string) error {
	logger.InfoContext(ctx, "[DEV SMS] text", "to", strings.Join(phones, ","), "text", text)
	return nil
}
