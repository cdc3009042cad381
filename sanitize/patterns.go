package sanitize

import "regexp"

// patternRule pairs a value-matching regex with a masking strategy.
type patternRule struct {
	re   *regexp.Regexp
	mask func(match string) string
}

func (p patternRule) apply(s string) string {
	return p.re.ReplaceAllStringFunc(s, p.mask)
}

func fullRedact(string) string { return defaultReplacement }

var (
	creditCardPattern = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)
	emailPattern       = regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)
	jwtPattern         = regexp.MustCompile(`\b[A-Za-z0-9_\-]{10,}\.[A-Za-z0-9_\-]{10,}\.[A-Za-z0-9_\-]{10,}\b`)
	phonePattern       = regexp.MustCompile(`\b\+?\d{1,3}[ -]?\(?\d{3}\)?[ -]?\d{3}[ -]?\d{4}\b`)
)

func maskTrailingDigits(match string) string {
	digitsOnly := make([]byte, 0, len(match))
	for i := 0; i < len(match); i++ {
		if match[i] >= '0' && match[i] <= '9' {
			digitsOnly = append(digitsOnly, match[i])
		}
	}
	if len(digitsOnly) <= 4 {
		return "****"
	}
	tail := digitsOnly[len(digitsOnly)-4:]
	return "****" + string(tail)
}

func maskEmail(match string) string {
	at := -1
	for i := 0; i < len(match); i++ {
		if match[i] == '@' {
			at = i
			break
		}
	}
	if at <= 0 {
		return defaultReplacement
	}
	local, domain := match[:at], match[at:]
	if len(local) <= 2 {
		return local[:1] + "***" + domain
	}
	return local[:2] + "***" + domain
}

var presetPatterns = map[Preset][]patternRule{
	PresetDefault: {
		{re: creditCardPattern, mask: maskTrailingDigits},
		{re: jwtPattern, mask: fullRedact},
		{re: emailPattern, mask: maskEmail},
	},
	PresetGDPR: {
		{re: creditCardPattern, mask: maskTrailingDigits},
		{re: jwtPattern, mask: fullRedact},
		{re: emailPattern, mask: maskEmail},
		{re: phonePattern, mask: fullRedact},
	},
	PresetHIPAA: {
		{re: creditCardPattern, mask: maskTrailingDigits},
		{re: jwtPattern, mask: fullRedact},
		{re: emailPattern, mask: maskEmail},
		{re: phonePattern, mask: fullRedact},
	},
	PresetPCIDSS: {
		{re: creditCardPattern, mask: maskTrailingDigits},
	},
	PresetMinimal: {
		{re: jwtPattern, mask: fullRedact},
	},
}
