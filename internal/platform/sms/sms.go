// Package sms delivers one-time passwords and guest invitations by text
// message.
package sms

import (
	"context"
	"fmt"
)

// Sender is the outbound text channel. Phones are local numbers without the
// trunk prefix.
type Sender interface {
	SendOtp(ctx context.Context, phone, code string) error
	SendText(ctx context.Context, phones []string, text string) error
}

func otpText(code string) string {
	return fmt.Sprintf("Your Niko Soko code is %s. Do not share it with anyone.", code)
}
