// Package phone maps raw phone strings to a display format for supported
// regional numbering plans. Unrecognised numbers pass through unchanged.
package phone

import "strings"

// rule matches a dialable prefix within a plan and formats the national
// significant number it extracts.
type rule struct {
	// match returns the national significant number and true when the digit
	// string belongs to this rule.
	match func(digits string) (string, bool)
	// format renders the national number with the plan's country code.
	format func(countryCode, national string) string
}

// plan is one regional numbering plan. New regions are added to the plans
// table; call sites never change.
type plan struct {
	countryCode string
	rules       []rule
}

var plans = []plan{ukPlan}

// Normalize maps a raw phone string to display form. Empty input yields "";
// numbers no plan claims are returned unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	digits := digitsOf(raw)
	for _, p := range plans {
		for _, r := range p.rules {
			if national, ok := r.match(digits); ok {
				return r.format(p.countryCode, national)
			}
		}
	}

	return raw
}

// ukPlan covers UK mobiles (07xxx) and geographic lines (01/02/03), with or
// without the 44 country prefix.
var ukPlan = plan{
	countryCode: "44",
	rules: []rule{
		{match: ukMobile, format: formatUKMobile},
		{match: ukLandline, format: formatUKLandline},
	},
}

func ukMobile(digits string) (string, bool) {
	var national string
	switch {
	case strings.HasPrefix(digits, "07"):
		national = digits[1:]
	case strings.HasPrefix(digits, "447"):
		national = digits[2:]
	default:
		return "", false
	}
	if len(national) != 10 || national[0] != '7' {
		return "", false
	}
	return national, true
}

func ukLandline(digits string) (string, bool) {
	var national string
	switch {
	case hasAnyPrefix(digits, "01", "02", "03"):
		national = digits[1:]
	case hasAnyPrefix(digits, "441", "442", "443"):
		national = digits[2:]
	default:
		return "", false
	}
	if len(national) != 10 {
		return "", false
	}
	return national, true
}

// formatUKMobile renders +44 (0) DDDD DDD DDD.
func formatUKMobile(cc, n string) string {
	return "+" + cc + " (0) " + n[:4] + " " + n[4:7] + " " + n[7:]
}

// formatUKLandline renders +44 (0) DDD DDDD DDD.
func formatUKLandline(cc, n string) string {
	return "+" + cc + " (0) " + n[:3] + " " + n[3:7] + " " + n[7:]
}

func digitsOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
