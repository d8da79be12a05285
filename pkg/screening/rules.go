package screening

import "regexp"

// Rule names.
const (
	RuleNHSNumber   = "nhs_number"
	RuleDateOfBirth = "date_of_birth"
	RulePostcode    = "postcode"
	RuleAddressWord = "address_word"
	RuleHonorific   = "honorific"
)

// Rule is one identifiable-data heuristic.
//
// Pattern is written in the subset shared by RE2 and ECMAScript regular
// expressions so the browser widget can compile the exact same source.
// The two engines disagree on \s; Classify and Screen normalise input
// whitespace so RE2 sees what ECMAScript would.
type Rule struct {
	// Name identifies the rule in metrics and logs.
	Name string

	// Pattern is the regular expression source without flags.
	Pattern string

	// CaseInsensitive matches regardless of letter case.
	CaseInsensitive bool

	// Lowercase runs the rule over a lower-cased copy of the input.
	Lowercase bool
}

// rules is the rule table. Order matters only for the order of names
// reported by Screen.
var rules = []Rule{
	{
		Name:    RuleNHSNumber,
		Pattern: `\b\d{10}\b`,
	},
	{
		Name:    RuleDateOfBirth,
		Pattern: `\b\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}\b`,
	},
	{
		Name:            RulePostcode,
		Pattern:         `\b([a-z]{1,2}\d[a-z\d]?\s*\d[a-z]{2})\b`,
		CaseInsensitive: true,
	},
	{
		Name:            RuleAddressWord,
		Pattern:         `\b(address|postcode|house\s*number|flat|street|road|avenue)\b`,
		CaseInsensitive: true,
		Lowercase:       true,
	},
	{
		Name:            RuleHonorific,
		Pattern:         `\b(mr|mrs|miss|ms|dr)\b`,
		CaseInsensitive: true,
		Lowercase:       true,
	},
}

// compiled holds the rule table compiled once at package init.
var compiled = compile(rules)

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

func compile(rs []Rule) []compiledRule {
	out := make([]compiledRule, 0, len(rs))
	for _, r := range rs {
		src := r.Pattern
		if r.CaseInsensitive {
			src = "(?i)" + src
		}
		out = append(out, compiledRule{Rule: r, re: regexp.MustCompile(src)})
	}
	return out
}

// Rules returns a copy of the rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Regexps returns the compiled rule patterns keyed by rule name.
// The log redactor uses these to mask identifiers in log values.
func Regexps() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(compiled))
	for _, c := range compiled {
		out[c.Name] = c.re
	}
	return out
}
