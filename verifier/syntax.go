package verifier

import (
	"strings"

	"github.com/badoux/checkmail"
)

type parsedAddress struct {
	local  string
	domain string
}

// normalize trims surrounding whitespace and strips stray separators that
// commonly leak in from pasted address lists, then lower-cases the address.
func normalize(email string) string {
	email = strings.TrimSpace(email)
	email = strings.ReplaceAll(email, ";", "")
	return strings.ToLower(email)
}

// parseAddress splits a normalized address into local part and domain.
// No network access happens here; a failure is terminal for the address.
func parseAddress(email string) (parsedAddress, error) {
	if email == "" {
		return parsedAddress{}, checkmail.ErrBadFormat
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return parsedAddress{}, err
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return parsedAddress{}, checkmail.ErrBadFormat
	}
	return parsedAddress{local: email[:at], domain: email[at+1:]}, nil
}
