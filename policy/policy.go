package policy

// AutoActionRule controls one supervisory auto-action. The threshold is only
// meaningful while the rule is enabled.
type AutoActionRule struct {
	Enabled   bool
	Threshold RiskLevel
}

// AutoActions groups the three independent auto-action rules.
type AutoActions struct {
	Approve AutoActionRule
	Reject  AutoActionRule
	Steer   AutoActionRule
}

// FileChangePolicy is the resolved, authoritative supervision configuration
// for one file-change event.
type FileChangePolicy struct {
	DiffExplainability bool
	AutoActions        AutoActions
}

// AnyActionEnabled reports whether at least one auto-action is enabled.
func (p FileChangePolicy) AnyActionEnabled() bool {
	return p.AutoActions.Approve.Enabled ||
		p.AutoActions.Reject.Enabled ||
		p.AutoActions.Steer.Enabled
}

// Default returns the hard-coded bottom of the precedence chain:
// explainability on, every auto-action off, approve threshold low,
// reject and steer thresholds high.
func Default() FileChangePolicy {
	return FileChangePolicy{
		DiffExplainability: true,
		AutoActions: AutoActions{
			Approve: AutoActionRule{Enabled: false, Threshold: RiskLow},
			Reject:  AutoActionRule{Enabled: false, Threshold: RiskHigh},
			Steer:   AutoActionRule{Enabled: false, Threshold: RiskHigh},
		},
	}
}
