package domain

// RiskLevel is an ordered severity scale.
type RiskLevel int

const (
	LevelSafe RiskLevel = iota
	LevelSuspicious
	LevelMalicious
)

// String returns the wire/display name of the level.
func (l RiskLevel) String() string {
	switch l {
	case LevelMalicious:
		return "malicious"
	case LevelSuspicious:
		return "suspicious"
	default:
		return "safe"
	}
}

// Verdict is the outcome of classifying one holding: a severity level plus
// the issues discovered, in discovery order.
type Verdict struct {
	Level  RiskLevel
	Issues []string
}

// Escalate raises the level to proposed if it is more severe.
// A verdict never downgrades: level' = max(level, proposed).
func (v *Verdict) Escalate(proposed RiskLevel) {
	if proposed > v.Level {
		v.Level = proposed
	}
}

// Flag escalates to proposed and records an issue.
func (v *Verdict) Flag(proposed RiskLevel, issue string) {
	v.Escalate(proposed)
	v.Issues = append(v.Issues, issue)
}
