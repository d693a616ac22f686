package policy

// RuleOverlay is a partial auto-action rule from one precedence layer.
// Nil fields leave the lower layer's value in place.
type RuleOverlay struct {
	Enabled   *bool
	Threshold *RiskLevel
}

// Overlay is one precedence layer of file-change supervision settings.
// Layers come from, lowest to highest: process defaults, per-session stored
// settings, and the per-event override.
type Overlay struct {
	DiffExplainability *bool
	Approve            RuleOverlay
	Reject             RuleOverlay
	Steer              RuleOverlay
}

// Resolve applies overlays on top of the base policy, lowest precedence
// first. It cannot fail: absent or malformed fields simply do not override.
func Resolve(base FileChangePolicy, overlays ...Overlay) FileChangePolicy {
	resolved := base
	for _, overlay := range overlays {
		if overlay.DiffExplainability != nil {
			resolved.DiffExplainability = *overlay.DiffExplainability
		}
		applyRule(&resolved.AutoActions.Approve, overlay.Approve)
		applyRule(&resolved.AutoActions.Reject, overlay.Reject)
		applyRule(&resolved.AutoActions.Steer, overlay.Steer)
	}
	return resolved
}

func applyRule(rule *AutoActionRule, overlay RuleOverlay) {
	if overlay.Enabled != nil {
		rule.Enabled = *overlay.Enabled
	}
	if overlay.Threshold != nil {
		rule.Threshold = *overlay.Threshold
	}
}

// OverlayFromSettings builds an overlay from a raw settings object, typically
// the stored "supervisor.fileChange" namespace. The decode is tolerant:
// wrong-typed fields are ignored rather than failing the layer. Both the
// structured autoActions object and the legacy flat autoApprove/autoReject/
// autoSteer fields are honored, with the structured form winning per action.
func OverlayFromSettings(raw map[string]any) Overlay {
	var overlay Overlay
	if raw == nil {
		return overlay
	}

	if v, ok := boolValue(raw["diffExplainability"]); ok {
		overlay.DiffExplainability = &v
	}

	// Legacy flat fields first so the structured object can override them.
	overlay.Approve = ruleOverlay(raw["autoApprove"])
	overlay.Reject = ruleOverlay(raw["autoReject"])
	overlay.Steer = ruleOverlay(raw["autoSteer"])

	if actions, ok := raw["autoActions"].(map[string]any); ok {
		mergeRuleOverlay(&overlay.Approve, ruleOverlay(actions["approve"]))
		mergeRuleOverlay(&overlay.Reject, ruleOverlay(actions["reject"]))
		mergeRuleOverlay(&overlay.Steer, ruleOverlay(actions["steer"]))
	}

	return overlay
}

// ruleOverlay decodes one auto-action value. A bare boolean toggles the
// enabled flag (legacy shape); an object may carry enabled and threshold.
func ruleOverlay(value any) RuleOverlay {
	var overlay RuleOverlay
	switch v := value.(type) {
	case bool:
		enabled := v
		overlay.Enabled = &enabled
	case map[string]any:
		if enabled, ok := boolValue(v["enabled"]); ok {
			overlay.Enabled = &enabled
		}
		if raw, ok := stringValue(v["threshold"]); ok {
			level := ParseRiskLevel(raw, "")
			if level.Valid() {
				overlay.Threshold = &level
			}
		}
	}
	return overlay
}

func mergeRuleOverlay(dst *RuleOverlay, src RuleOverlay) {
	if src.Enabled != nil {
		dst.Enabled = src.Enabled
	}
	if src.Threshold != nil {
		dst.Threshold = src.Threshold
	}
}

func boolValue(value any) (bool, bool) {
	v, ok := value.(bool)
	return v, ok
}

func stringValue(value any) (string, bool) {
	v, ok := value.(string)
	return v, ok
}
