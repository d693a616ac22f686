// Package policy resolves the per-session file-change supervision policy.
//
// Resolution is total: every precedence layer bottoms out in the hard-coded
// defaults, so a missing or malformed settings object can only loosen or
// tighten the policy, never abort it.
package policy

import "strings"

// RiskLevel is the ordered risk vocabulary used by auto-action thresholds
// and per-file insights.
type RiskLevel string

const (
	RiskNone RiskLevel = "none"
	RiskLow  RiskLevel = "low"
	RiskMed  RiskLevel = "med"
	RiskHigh RiskLevel = "high"
)

// Rank returns the position of the level in the none < low < med < high
// ordering. Unknown levels rank below none.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskNone:
		return 0
	case RiskLow:
		return 1
	case RiskMed:
		return 2
	case RiskHigh:
		return 3
	default:
		return -1
	}
}

// Valid reports whether the level is one of the four known values.
func (r RiskLevel) Valid() bool {
	return r.Rank() >= 0
}

// ParseRiskLevel normalizes a raw risk string. Matching is case-insensitive
// and accepts the synonym "medium" for med. Anything else falls back to the
// caller-supplied default.
func ParseRiskLevel(raw string, fallback RiskLevel) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "none":
		return RiskNone
	case "low":
		return RiskLow
	case "med", "medium":
		return RiskMed
	case "high":
		return RiskHigh
	default:
		return fallback
	}
}
