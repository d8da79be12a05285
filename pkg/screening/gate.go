package screening

import (
	"strings"
	"unicode"
)

// Guidance is shown to the user when a message is flagged.
const Guidance = "I can't help with that as it looks like it may include patient-identifiable information.\n\n" +
	"Please remove NHS numbers, dates of birth, names, addresses, postcodes, screenshots, " +
	"or anything that could identify a patient, then try again with a general description of the issue."

// Result is the outcome of screening one message.
type Result struct {
	// Flagged is true when at least one rule matched.
	Flagged bool

	// Rules lists the names of the matching rules in table order.
	Rules []string
}

// Classify reports whether text looks like it contains patient-identifiable
// information. It stops at the first matching rule.
func Classify(text string) bool {
	text = normalizeSpace(text)
	lower := strings.ToLower(text)
	for _, c := range compiled {
		if c.re.MatchString(input(c.Rule, text, lower)) {
			return true
		}
	}
	return false
}

// Screen evaluates every rule against text and reports all that matched.
// Screen(text).Flagged always equals Classify(text).
func Screen(text string) Result {
	text = normalizeSpace(text)
	lower := strings.ToLower(text)
	var res Result
	for _, c := range compiled {
		if c.re.MatchString(input(c.Rule, text, lower)) {
			res.Flagged = true
			res.Rules = append(res.Rules, c.Name)
		}
	}
	return res
}

func input(r Rule, raw, lower string) string {
	if r.Lowercase {
		return lower
	}
	return raw
}

// normalizeSpace maps every rune ECMAScript's \s matches to ' '. RE2's \s
// is ASCII only, so without this a postcode split by a no-break space
// would pass here and be flagged by the widget.
func normalizeSpace(text string) string {
	return strings.Map(func(r rune) rune {
		if isScriptSpace(r) {
			return ' '
		}
		return r
	}, text)
}

// isScriptSpace reports whether r is in ECMAScript's WhiteSpace or
// LineTerminator sets. unicode.IsSpace differs only in U+0085 and U+FEFF.
func isScriptSpace(r rune) bool {
	switch r {
	case '\u0085':
		return false
	case '\ufeff':
		return true
	}
	return unicode.IsSpace(r)
}
