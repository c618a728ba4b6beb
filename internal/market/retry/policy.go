package retry

import "marketbeat/internal/market"

// Backoff selects how long to wait before the next attempt.
type Backoff int

const (
	// BackoffExponential waits base*2^(attempt-1) plus up to the same amount of jitter.
	BackoffExponential Backoff = iota
	// BackoffCooldown waits the fixed rate-limit cooldown.
	BackoffCooldown
)

func (b Backoff) String() string {
	if b == BackoffCooldown {
		return "cooldown"
	}
	return "exponential"
}

// Decision is what the executor does with one failed fetch.
type Decision struct {
	Kind                market.ErrorKind
	CountsAgainstBudget bool
	Backoff             Backoff
}

// Policy maps every error kind to a Decision.
type Policy map[market.ErrorKind]Decision

// DefaultPolicy is the decision table:
//
//	kind          budget  wait
//	network       yes     exponential + jitter
//	unknown       yes     exponential + jitter
//	rate_limited  no      fixed cooldown
func DefaultPolicy() Policy {
	return Policy{
		market.KindNetwork:     {Kind: market.KindNetwork, CountsAgainstBudget: true, Backoff: BackoffExponential},
		market.KindUnknown:     {Kind: market.KindUnknown, CountsAgainstBudget: true, Backoff: BackoffExponential},
		market.KindRateLimited: {Kind: market.KindRateLimited, CountsAgainstBudget: false, Backoff: BackoffCooldown},
	}
}

// Decide classifies err. Kinds missing from the table fall back to the unknown row.
func (p Policy) Decide(err error) Decision {
	kind := market.KindOf(err)
	if d, ok := p[kind]; ok {
		return d
	}
	if d, ok := p[market.KindUnknown]; ok {
		d.Kind = kind
		return d
	}
	return Decision{Kind: kind, CountsAgainstBudget: true, Backoff: BackoffExponential}
}
