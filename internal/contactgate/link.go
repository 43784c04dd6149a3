package contactgate

import (
	"errors"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/utils"
)

var ErrChannelUnavailable = errors.New("provider cannot be reached on this channel")

// Link builds the URL the client opens after a contact is allowed.
func Link(channel domain.CTA, p domain.Provider) (string, error) {
	switch channel {
	case domain.CTACall:
		if p.Phone == "" {
			return "", ErrChannelUnavailable
		}
		return "tel:" + p.Phone, nil
	case domain.CTAWhatsApp:
		wa := utils.DigitsOnly(p.Whatsapp)
		if wa == "" {
			return "", ErrChannelUnavailable
		}
		return "https://wa.me/" + wa, nil
	default:
		return "", ErrChannelUnavailable
	}
}
