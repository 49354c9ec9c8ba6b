// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
//
// Brazilian numbers reach the platform in many shapes: with or without the
// "55" country code, with or without the mobile leading "9", with
// punctuation, or as a bare 9-digit subscriber number. An Identity reduces a
// raw string to one canonical key plus the alternate encodings another
// system may have stored for the same line.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "BR"
	countryCode   = "55"

	// two-digit area code plus an eight-digit landline
	minNationalLength = 10
)

// Identity is a canonical phone key with its variant set.
type Identity struct {
	Canonical string
	Variants  []string
}

// NewIdentity normalizes raw and derives its variants.
// Empty or digit-free input yields the zero Identity.
func NewIdentity(raw string) Identity {
	canonical := Normalize(raw)
	if canonical == "" {
		return Identity{}
	}
	return Identity{Canonical: canonical, Variants: variantsOf(canonical)}
}

// FromPtr is NewIdentity for nullable columns.
func FromPtr(raw *string) Identity {
	if raw == nil {
		return Identity{}
	}
	return NewIdentity(*raw)
}

// IsZero reports whether no digits could be recovered.
func (i Identity) IsZero() bool {
	return i.Canonical == ""
}

// Matches reports whether the two identities share at least one variant.
func (i Identity) Matches(other Identity) bool {
	if i.IsZero() || other.IsZero() {
		return false
	}
	seen := make(map[string]struct{}, len(i.Variants))
	for _, v := range i.Variants {
		seen[v] = struct{}{}
	}
	for _, v := range other.Variants {
		if _, ok := seen[v]; ok {
			return true
		}
	}
	return false
}

// E164 formats the canonical key for display. Keys shorter than area code
// plus subscriber have no E.164 form and yield "". Numbers libphonenumber
// rejects are returned with the country code prefixed.
func (i Identity) E164() string {
	if len(i.Canonical) < minNationalLength {
		return ""
	}
	number, err := phonenumbers.Parse(countryCode+i.Canonical, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "+" + countryCode + i.Canonical
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// Normalize returns the canonical digit key for raw. It never fails; input
// it cannot make sense of degrades to its digits.
func Normalize(raw string) string {
	digits := digitsOnly(raw)

	if strings.HasPrefix(digits, countryCode) && len(digits) > 11 {
		digits = digits[len(countryCode):]
	}

	switch n := len(digits); {
	case n == 11:
		return digits
	case n == 10:
		ddd, subscriber := digits[:2], digits[2:]
		if looksMobile(subscriber) {
			return ddd + "9" + subscriber
		}
		return digits
	case n == 9:
		return digits
	case n > 11:
		return digits[n-11:]
	default:
		return digits
	}
}

// Variants returns the variant set of raw's canonical key.
func Variants(raw string) []string {
	return NewIdentity(raw).Variants
}

func variantsOf(canonical string) []string {
	out := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(canonical)
	add(countryCode + canonical)

	switch len(canonical) {
	case 11:
		if canonical[2] == '9' {
			add(canonical[:2] + canonical[3:])
		}
	case 10:
		add(canonical[:2] + "9" + canonical[2:])
	}

	return out
}

// looksMobile applies the pre-2016 rule: mobile subscriber numbers start
// with 6, 7, 8 or 9.
func looksMobile(subscriber string) bool {
	if subscriber == "" {
		return false
	}
	return subscriber[0] >= '6'
}

func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
