package policy

import "testing"

func TestParseRiskLevelNormalizesVocabulary(t *testing.T) {
	cases := []struct {
		raw  string
		want RiskLevel
	}{
		{"none", RiskNone},
		{"low", RiskLow},
		{"med", RiskMed},
		{"medium", RiskMed},
		{"Medium", RiskMed},
		{"MED", RiskMed},
		{"HIGH", RiskHigh},
		{"  high  ", RiskHigh},
	}

	for _, tc := range cases {
		got := ParseRiskLevel(tc.raw, RiskNone)
		if got != tc.want {
			t.Fatalf("ParseRiskLevel(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseRiskLevelFallsBackOnGarbage(t *testing.T) {
	for _, raw := range []string{"", "critical", "hig h", "3", "med ium"} {
		got := ParseRiskLevel(raw, RiskHigh)
		if got != RiskHigh {
			t.Fatalf("ParseRiskLevel(%q) = %q, want fallback high", raw, got)
		}
	}
}

func TestRiskLevelOrdering(t *testing.T) {
	ordered := []RiskLevel{RiskNone, RiskLow, RiskMed, RiskHigh}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Fatalf("expected %q to rank below %q", ordered[i-1], ordered[i])
		}
	}
	if RiskLevel("bogus").Valid() {
		t.Fatal("expected bogus level to be invalid")
	}
}
