package health

import (
	"context"
	"fmt"
	"strings"
)

// Pinger is implemented by limiter stores with a remote backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports the reachability of a remote dependency.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		return nil
	}
}

// ConfiguredCheck fails while missing returns any names. The names are
// settings, never their values.
func ConfiguredCheck(missing func() []string) CheckFunc {
	return func(context.Context) error {
		if m := missing(); len(m) > 0 {
			return fmt.Errorf("not configured: missing %s", strings.Join(m, ", "))
		}
		return nil
	}
}
