// Relay is the support chat relay for GP practice staff.
//
// It accepts non-clinical NHS App support questions from the embedded chat
// widget, rejects messages that look like they carry patient-identifiable
// information, limits each source to a fixed number of requests per window
// and forwards the rest to an upstream completion API.
//
// Usage:
//
//	# Start the server (credentials from AI_API_URL and AI_API_KEY)
//	relay run
//
//	# Start with a config file, reloading limiter policy on change
//	relay run --config /etc/relay/config.yaml
//
//	# Check a message against the screening rules
//	echo "NHS number 9434765919" | relay screen
//
//	# Validate configuration
//	relay validate --config config.yaml
package main

func main() {
	Execute()
}
