package link

import (
	"context"
	"log"
	"time"
)

// DefaultRetryInterval is the delay between connect attempts when none is configured.
const DefaultRetryInterval = time.Second

// Policy controls how the Guardian retries a down link.
type Policy struct {
	Interval    time.Duration // delay between connect attempts
	MaxAttempts int           // 0 = retry until the link comes up
}

// Guardian ensures the link is up before a delivery attempt.
type Guardian struct {
	link   Link
	creds  Credentials
	policy Policy
}

// NewGuardian creates a Guardian for l.
func NewGuardian(l Link, creds Credentials, policy Policy) *Guardian {
	if policy.Interval <= 0 {
		policy.Interval = DefaultRetryInterval
	}
	return &Guardian{link: l, creds: creds, policy: policy}
}

// EnsureUp returns true immediately when the link is up. Otherwise it issues
// connect requests until the link comes up, the policy runs out of attempts
// or ctx is cancelled.
func (g *Guardian) EnsureUp(ctx context.Context) bool {
	if g.link.Status() == Up {
		return true
	}

	log.Printf("Link down, connecting to %q", g.creds.SSID)
	for attempt := 1; ; attempt++ {
		if g.link.Connect(ctx, g.creds) == Up {
			log.Printf("Link up after %d attempt(s): %s", attempt, g.link.Identity())
			return true
		}

		if g.policy.MaxAttempts > 0 && attempt >= g.policy.MaxAttempts {
			log.Printf("Link still down after %d attempt(s), giving up", attempt)
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(g.policy.Interval):
		}
	}
}
