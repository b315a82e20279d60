// Package tier classifies callers by credential prefix and maps each tier to
// its rate-limit quotas and queue priority.
package tier

import "strings"

// Tier is a caller classification.
type Tier string

const (
	Free    Tier = "free"
	Basic   Tier = "basic"
	Premium Tier = "premium"
)

// AnonymousIdentity is the caller identity used when no credential was
// supplied.
const AnonymousIdentity = "anonymous"

// Quota is the fixed-window admission budget for one tier.
type Quota struct {
	PerMinute int
	PerDay    int
}

// DefaultQuotas are the stock per-tier budgets; configuration may override
// them per tier.
func DefaultQuotas() map[Tier]Quota {
	return map[Tier]Quota{
		Free:    {PerMinute: 10, PerDay: 100},
		Basic:   {PerMinute: 30, PerDay: 1000},
		Premium: {PerMinute: 100, PerDay: 10000},
	}
}

// FromCredential derives the tier from the credential-prefix convention:
// premium_* is premium, basic_* is basic, anything else (including absent)
// is free.
func FromCredential(credential string) Tier {
	switch {
	case credential == "" || credential == AnonymousIdentity:
		return Free
	case strings.HasPrefix(credential, "premium_"):
		return Premium
	case strings.HasPrefix(credential, "basic_"):
		return Basic
	default:
		return Free
	}
}

// Parse returns the tier named by s, defaulting to Free for anything
// unrecognized.
func Parse(s string) Tier {
	switch Tier(s) {
	case Basic:
		return Basic
	case Premium:
		return Premium
	default:
		return Free
	}
}

// Priority is the queue priority hint for this tier. Higher runs first.
func (t Tier) Priority() int {
	switch t {
	case Premium:
		return 9
	case Basic:
		return 5
	default:
		return 1
	}
}

func (t Tier) String() string { return string(t) }
