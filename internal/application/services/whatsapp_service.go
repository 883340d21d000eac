package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/maghraz/crm/internal/domain/entities"
)

// WhatsAppService builds wa.me deep links for messaging customers and
// holds the canned message texts offered to the operator.
type WhatsAppService struct {
	countryCode string
	messages    []string
}

// NewWhatsAppService creates a WhatsApp deep-link service.
func NewWhatsAppService(countryCode string, messages []string) *WhatsAppService {
	return &WhatsAppService{
		countryCode: countryCode,
		messages:    messages,
	}
}

// Messages returns the canned message texts.
func (s *WhatsAppService) Messages() []string {
	return append([]string{}, s.messages...)
}

// DeepLink builds the wa.me URL for a customer and one of the canned
// messages. The local phone number loses its leading zero and gains the
// country code.
func (s *WhatsAppService) DeepLink(customer entities.Customer, messageIndex int) (string, error) {
	if messageIndex < 0 || messageIndex >= len(s.messages) {
		return "", fmt.Errorf("message index %d out of range", messageIndex)
	}

	phone := digitsOnly(customer.Phone)
	if phone == "" {
		return "", fmt.Errorf("customer %s has no usable phone number", customer.ID)
	}
	phone = strings.TrimPrefix(phone, "0")

	return fmt.Sprintf(
		"https://wa.me/%s%s?text=%s",
		s.countryCode,
		phone,
		url.QueryEscape(s.messages[messageIndex]),
	), nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
