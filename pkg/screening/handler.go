package screening

import (
	"encoding/json"
	"net/http"
)

// ClientRule is the browser-facing form of a Rule: an ECMAScript regular
// expression source plus its flags.
type ClientRule struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Flags  string `json:"flags"`
}

// ClientRules converts the rule table for the advisory check in the widget.
func ClientRules() []ClientRule {
	out := make([]ClientRule, 0, len(rules))
	for _, r := range rules {
		cr := ClientRule{Name: r.Name, Source: r.Pattern}
		if r.CaseInsensitive {
			cr.Flags = "i"
		}
		out = append(out, cr)
	}
	return out
}

// RulesHandler serves the rule table as JSON:
//
//	{"rules":[{"name":"nhs_number","source":"\\b\\d{10}\\b","flags":""}, ...]}
func RulesHandler() http.HandlerFunc {
	body, _ := json.Marshal(struct {
		Rules []ClientRule `json:"rules"`
	}{Rules: ClientRules()})

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(body)
		}
	}
}
