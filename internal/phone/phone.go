package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/sudo-init-do/artmaster/internal/apperr"
)

var ErrInvalid = apperr.Validation("phone_number: invalid phone number")

// Normalize parses raw in the given default region and returns it in E.164.
// Numbers written with a leading + ignore the region.
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
