// Package screening decides whether a support question looks like it carries
// patient-identifiable information.
//
// # Overview
//
// The gate is a heuristic first barrier, not a compliance control. A message
// is flagged when any one of five rules matches:
//
//   - nhs_number: a run of exactly ten digits bounded by non-word characters
//   - date_of_birth: D{1,2} sep D{1,2} sep D{2,4}, sep being "/" or "-"
//   - postcode: a UK postcode shape such as "SW1A 1AA"
//   - address_word: address, postcode, house number, flat, street, road, avenue
//   - honorific: mr, mrs, miss, ms, dr
//
// # Single source of truth
//
// The same rule table backs every call site. The server's authoritative check
// calls Classify, the "relay screen" command runs it from a shell, and the
// browser widget builds its advisory pre-check from the JSON returned by
// RulesHandler, so the client and server copies cannot drift apart.
//
//	if screening.Classify(message) {
//	    // reject with screening.Guidance
//	}
//
// All functions are safe for concurrent use.
package screening
