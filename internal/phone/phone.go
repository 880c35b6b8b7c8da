// Package phone checks mobile numbers typed into the lead forms.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when the caller has no region hint.
const DefaultRegion = "IN"

var notificationStrip = regexp.MustCompile(`[\s+]`)

// Validator applies libphonenumber's international numbering rules.
type Validator struct {
	fallbackRegion string
}

// NewValidator returns a validator that assumes fallbackRegion for numbers
// typed without a country prefix when the caller passes no region.
func NewValidator(fallbackRegion string) *Validator {
	fallbackRegion = strings.ToUpper(strings.TrimSpace(fallbackRegion))
	if fallbackRegion == "" {
		fallbackRegion = DefaultRegion
	}
	return &Validator{fallbackRegion: fallbackRegion}
}

// Valid reports whether number is a dialable number for its region.
func (v *Validator) Valid(number, defaultRegion string) bool {
	number = strings.TrimSpace(number)
	if number == "" {
		return false
	}
	num, err := phonenumbers.Parse(number, v.region(defaultRegion))
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// E164 formats number as +<country><national>, or returns "" when invalid.
func (v *Validator) E164(number, defaultRegion string) string {
	num, err := phonenumbers.Parse(strings.TrimSpace(number), v.region(defaultRegion))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func (v *Validator) region(hint string) string {
	hint = strings.ToUpper(strings.TrimSpace(hint))
	if len(hint) != 2 {
		return v.fallbackRegion
	}
	return hint
}

// StripForNotification removes the leading plus and any whitespace, the
// shape the WhatsApp gateway expects for recipients.
func StripForNotification(number string) string {
	return notificationStrip.ReplaceAllString(number, "")
}
