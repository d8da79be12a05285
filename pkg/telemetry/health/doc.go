// Package health serves liveness and readiness probes.
//
// /health answers 200 whenever the process is up. /ready runs the
// registered checks: the relay registers "upstream", which fails while the
// completion API URL or key is missing, and "limiter_store", which pings
// Redis when that backend is in use. Both are critical unless the limiter
// fails open, in which case a Redis outage only degrades readiness.
package health
