package policy

import "testing"

func TestDefaultPolicy(t *testing.T) {
	def := Default()

	if !def.DiffExplainability {
		t.Fatal("expected diff explainability on by default")
	}
	if def.AnyActionEnabled() {
		t.Fatal("expected all auto-actions disabled by default")
	}
	if def.AutoActions.Approve.Threshold != RiskLow {
		t.Fatalf("unexpected approve threshold: %q", def.AutoActions.Approve.Threshold)
	}
	if def.AutoActions.Reject.Threshold != RiskHigh {
		t.Fatalf("unexpected reject threshold: %q", def.AutoActions.Reject.Threshold)
	}
	if def.AutoActions.Steer.Threshold != RiskHigh {
		t.Fatalf("unexpected steer threshold: %q", def.AutoActions.Steer.Threshold)
	}
}

func TestResolveLayersInPrecedenceOrder(t *testing.T) {
	enabled := true
	disabled := false
	med := RiskMed

	session := Overlay{
		Approve: RuleOverlay{Enabled: &enabled, Threshold: &med},
	}
	override := Overlay{
		Approve: RuleOverlay{Enabled: &disabled},
	}

	resolved := Resolve(Default(), session, override)

	if resolved.AutoActions.Approve.Enabled {
		t.Fatal("expected the per-event override to win over session settings")
	}
	if resolved.AutoActions.Approve.Threshold != RiskMed {
		t.Fatalf("expected session threshold to survive, got %q", resolved.AutoActions.Approve.Threshold)
	}
}

func TestOverlayFromSettingsStructuredActions(t *testing.T) {
	overlay := OverlayFromSettings(map[string]any{
		"diffExplainability": false,
		"autoActions": map[string]any{
			"approve": map[string]any{"enabled": true, "threshold": "Medium"},
			"reject":  map[string]any{"enabled": true, "threshold": "HIGH"},
		},
	})

	resolved := Resolve(Default(), overlay)

	if resolved.DiffExplainability {
		t.Fatal("expected diff explainability off")
	}
	if !resolved.AutoActions.Approve.Enabled || resolved.AutoActions.Approve.Threshold != RiskMed {
		t.Fatalf("unexpected approve rule: %+v", resolved.AutoActions.Approve)
	}
	if !resolved.AutoActions.Reject.Enabled || resolved.AutoActions.Reject.Threshold != RiskHigh {
		t.Fatalf("unexpected reject rule: %+v", resolved.AutoActions.Reject)
	}
	if resolved.AutoActions.Steer.Enabled {
		t.Fatal("expected steer untouched")
	}
}

func TestOverlayFromSettingsLegacyFlatFields(t *testing.T) {
	overlay := OverlayFromSettings(map[string]any{
		"autoApprove": true,
		"autoReject":  map[string]any{"enabled": true, "threshold": "med"},
		"autoSteer":   false,
	})

	resolved := Resolve(Default(), overlay)

	if !resolved.AutoActions.Approve.Enabled {
		t.Fatal("expected legacy bare boolean to enable approve")
	}
	// Legacy booleans must not disturb the default threshold.
	if resolved.AutoActions.Approve.Threshold != RiskLow {
		t.Fatalf("unexpected approve threshold: %q", resolved.AutoActions.Approve.Threshold)
	}
	if !resolved.AutoActions.Reject.Enabled || resolved.AutoActions.Reject.Threshold != RiskMed {
		t.Fatalf("unexpected reject rule: %+v", resolved.AutoActions.Reject)
	}
	if resolved.AutoActions.Steer.Enabled {
		t.Fatal("expected legacy false to keep steer disabled")
	}
}

func TestOverlayFromSettingsStructuredWinsOverLegacy(t *testing.T) {
	overlay := OverlayFromSettings(map[string]any{
		"autoApprove": true,
		"autoActions": map[string]any{
			"approve": map[string]any{"enabled": false},
		},
	})

	resolved := Resolve(Default(), overlay)

	if resolved.AutoActions.Approve.Enabled {
		t.Fatal("expected structured autoActions to win over the legacy flat field")
	}
}

func TestOverlayFromSettingsToleratesMalformedFields(t *testing.T) {
	overlay := OverlayFromSettings(map[string]any{
		"diffExplainability": "yes",
		"autoActions":        "broken",
		"autoApprove": map[string]any{
			"enabled":   "true",
			"threshold": "extreme",
		},
		"autoReject": 7,
	})

	resolved := Resolve(Default(), overlay)

	if resolved != Default() {
		t.Fatalf("expected malformed settings to degrade to defaults, got %+v", resolved)
	}
}

func TestResolveThresholdsAlwaysNormalized(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{},
		{"autoActions": map[string]any{"approve": map[string]any{"threshold": "Medium"}}},
		{"autoActions": map[string]any{"approve": map[string]any{"threshold": "garbage"}}},
		{"autoApprove": map[string]any{"threshold": "MED"}},
	}

	for _, raw := range inputs {
		resolved := Resolve(Default(), OverlayFromSettings(raw))
		for _, level := range []RiskLevel{
			resolved.AutoActions.Approve.Threshold,
			resolved.AutoActions.Reject.Threshold,
			resolved.AutoActions.Steer.Threshold,
		} {
			if !level.Valid() {
				t.Fatalf("resolved threshold %q not in the risk vocabulary (input %v)", level, raw)
			}
		}
	}
}
