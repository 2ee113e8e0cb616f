package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents removes combining diacritical marks after canonical
// decomposition, so "Hóla" and "hola" compare equal.
var stripAccents = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize canonicalizes text for keyword comparison: lowercase,
// accents stripped, whitespace runs collapsed to single spaces, trimmed.
// Empty input yields the empty string. Idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lowered := strings.ToLower(text)

	stripped, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		// Transform failures leave the lowered text as-is; matching
		// still works for unaccented input.
		stripped = lowered
	}

	return strings.Join(strings.Fields(stripped), " ")
}

// NormalizePhone strips the WhatsApp channel suffix and any non-digit
// characters, then ensures the number carries the expected country
// code prefix. The country code is configuration, not a constant: the
// original deployment hardcoded one country and that does not survive
// international tenants.
func NormalizePhone(phone, countryCode string) string {
	// "573001112233@s.whatsapp.net" -> "573001112233"
	if at := strings.IndexByte(phone, '@'); at >= 0 {
		phone = phone[:at]
	}
	phone = strings.TrimPrefix(phone, "whatsapp:")

	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if number == "" {
		return ""
	}
	if countryCode != "" && !strings.HasPrefix(number, countryCode) {
		number = countryCode + number
	}
	return number
}
