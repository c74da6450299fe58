package lead

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devcoregroup/lox/backend/internal/i18n"
)

// ContactMethod is how a visitor wants to be reached.
type ContactMethod string

const (
	Email     ContactMethod = "email"
	WhatsApp  ContactMethod = "whatsapp"
	Phone     ContactMethod = "phone"
	Instagram ContactMethod = "instagram"
	Facebook  ContactMethod = "facebook"
	LinkedIn  ContactMethod = "linkedin"
	Telegram  ContactMethod = "telegram"
)

var ErrUnknownContactMethod = errors.New("unknown contact method")

var methods = []ContactMethod{Email, WhatsApp, LinkedIn, Instagram, Facebook, Telegram, Phone}

// ContactMethods returns the selectable methods in form order.
func ContactMethods() []ContactMethod {
	return append([]ContactMethod(nil), methods...)
}

// ParseContactMethod accepts an empty string as "not selected".
func ParseContactMethod(raw string) (ContactMethod, error) {
	value := ContactMethod(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", nil
	}
	for _, m := range methods {
		if m == value {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContactMethod, raw)
}

// PlaceholderKey returns the locale key of the contact-info input placeholder.
func (m ContactMethod) PlaceholderKey() i18n.Key {
	switch m {
	case Email:
		return i18n.EmailPlaceholder
	case WhatsApp:
		return i18n.WhatsappPlaceholder
	case Phone:
		return i18n.PhonePlaceholder
	case Instagram:
		return i18n.InstagramPlaceholder
	case Facebook:
		return i18n.FacebookPlaceholder
	case LinkedIn:
		return i18n.LinkedinPlaceholder
	case Telegram:
		return i18n.TelegramPlaceholder
	default:
		return ""
	}
}

// InputType is the HTML input type a form should use for this method.
func (m ContactMethod) InputType() string {
	switch m {
	case Email:
		return "email"
	case Phone, WhatsApp:
		return "tel"
	default:
		return "text"
	}
}

// Lead is the visitor captured by the lead form.
type Lead struct {
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	ContactMethod ContactMethod `json:"contactMethod"`
	ContactInfo   string        `json:"contactInfo"`
}

// ContactIdentifier renders "method: info" for logs and notifications.
func (l Lead) ContactIdentifier() string {
	return fmt.Sprintf("%s: %s", l.ContactMethod, l.ContactInfo)
}
