// Package limiter bounds how many chat requests a single source may send
// to the upstream completion API.
//
// The algorithm is a fixed-window counter. Each source key owns an entry
// holding a count and the time its window started. On every call the entry
// is reset if the window has expired, then incremented unconditionally, and
// the request is admitted when the count is at most the limit. Rejected
// requests still count, so a client hammering the endpoint keeps itself
// locked out until it stops.
//
// Defaults are 30 requests per 60 second window.
//
// # Stores
//
// Counters live behind the Store interface:
//
//   - MemoryStore keeps entries in a process-local map. Counters reset on
//     restart and are not shared between instances.
//   - RedisStore keeps entries in Redis using INCR with an expiry set on
//     the first increment of a window, so every instance behind a load
//     balancer shares one counter per source.
//
// Store failures never surface from Admit. They are logged and resolved by
// the fail-open setting.
//
// # Basic Usage
//
//	l := limiter.New(limiter.NewMemoryStore(), limiter.Config{})
//	if !l.Admit(ctx, sourceKey) {
//	    // reject with 429
//	}
package limiter
