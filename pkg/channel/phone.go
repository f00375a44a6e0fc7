package channel

import (
	"fmt"
	"strings"
)

// NormalizePhone converts a raw phone number to E.164-style international
// form: a leading plus followed by 8 to 15 digits. Separator characters are
// stripped, a leading "00" is rewritten to "+", and numbers without any
// international prefix are rejected unless a default country code is given
// (digits only, e.g. "49").
func NormalizePhone(raw, defaultCountryCode string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty number", ErrInvalidPhoneNumber)
	}

	hasPlus := strings.HasPrefix(trimmed, "+")
	var digits strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// separators and the prefix sign are dropped
		default:
			return "", fmt.Errorf("%w: unexpected character %q in %q", ErrInvalidPhoneNumber, r, raw)
		}
	}

	number := digits.String()
	switch {
	case hasPlus:
		// already international
	case strings.HasPrefix(number, "00"):
		number = number[2:]
	case defaultCountryCode != "":
		number = defaultCountryCode + strings.TrimPrefix(number, "0")
	default:
		return "", fmt.Errorf("%w: missing international prefix in %q", ErrInvalidPhoneNumber, raw)
	}

	if len(number) < 8 || len(number) > 15 {
		return "", fmt.Errorf("%w: %d digits in %q", ErrInvalidPhoneNumber, len(number), raw)
	}
	if number[0] == '0' {
		return "", fmt.Errorf("%w: country code cannot start with zero in %q", ErrInvalidPhoneNumber, raw)
	}

	return "+" + number, nil
}
