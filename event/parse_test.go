package event

import (
	"errors"
	"testing"

	"github.com/unbound-computer/daemon-konan/policy"
)

func TestParseFileChangeRequiresContextIDs(t *testing.T) {
	payloads := []string{
		`{}`,
		`{"projectId":"p","sourceSessionId":"s","threadId":"t"}`,
		`{"projectId":"p","sourceSessionId":"s","threadId":"t","turnId":""}`,
		`{"projectId":"p","sourceSessionId":"s","threadId":"t","turnId":"   "}`,
		`{"projectId":"p","sourceSessionId":42,"threadId":"t","turnId":"u"}`,
	}

	for _, payload := range payloads {
		_, err := ParseFileChange([]byte(payload))
		if !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("expected ErrInvalidEvent for %s, got %v", payload, err)
		}
	}
}

func TestParseFileChangeCoercesSingleElementArrays(t *testing.T) {
	fc, err := ParseFileChange([]byte(`{
		"projectId": ["  proj-1  "],
		"sourceSessionId": "sess-1",
		"threadId": "thread-1",
		"turnId": "turn-1",
		"approvalId": ["ap_1"],
		"itemId": ["a", "b"]
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if fc.ProjectID != "proj-1" {
		t.Fatalf("expected coerced trimmed project id, got %q", fc.ProjectID)
	}
	if fc.ApprovalID != "ap_1" {
		t.Fatalf("expected coerced approval id, got %q", fc.ApprovalID)
	}
	// Multi-element arrays are not header-like; the key reads as absent.
	if fc.ItemID != "" {
		t.Fatalf("expected multi-element array to be absent, got %q", fc.ItemID)
	}
}

func TestParseFileChangeDropsKeysEmptyAfterTrim(t *testing.T) {
	fc, err := ParseFileChange([]byte(`{
		"projectId": "p",
		"sourceSessionId": "s",
		"threadId": "t",
		"turnId": "u",
		"approvalId": "   ",
		"summary": " \n "
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if fc.ApprovalID != "" {
		t.Fatalf("expected blank approval id treated as absent, got %q", fc.ApprovalID)
	}
	if fc.Summary != "" {
		t.Fatalf("expected blank summary treated as absent, got %q", fc.Summary)
	}
}

func TestApprovalActionsEligible(t *testing.T) {
	cases := []struct {
		status   string
		approval string
		want     bool
	}{
		{"pending_approval", "ap_1", true},
		{"pending_approval", "", false},
		{"approved", "ap_1", false},
		{"", "ap_1", false},
	}

	for _, tc := range cases {
		fc := &FileChange{FileChangeStatus: tc.status}
		fc.ApprovalID = tc.approval
		if got := fc.ApprovalActionsEligible(); got != tc.want {
			t.Fatalf("eligible(status=%q, approval=%q) = %v, want %v", tc.status, tc.approval, got, tc.want)
		}
	}
}

func TestParseTurnCompletedRequiresLiteralBoolean(t *testing.T) {
	base := `"projectId":"p","sourceSessionId":"s","threadId":"t","turnId":"u"`

	for _, payload := range []string{
		`{` + base + `}`,
		`{` + base + `,"hadFileChangeRequests":"true"}`,
		`{` + base + `,"hadFileChangeRequests":1}`,
	} {
		_, err := ParseTurnCompleted([]byte(payload))
		if !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("expected ErrInvalidEvent for %s, got %v", payload, err)
		}
	}

	tc, err := ParseTurnCompleted([]byte(`{` + base + `,"hadFileChangeRequests":false}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if tc.HadFileChangeRequests {
		t.Fatal("expected literal false to parse as false")
	}
}

func TestParseTurnCompletedFiltersInsightsElementWise(t *testing.T) {
	tc, err := ParseTurnCompleted([]byte(`{
		"projectId": "p",
		"sourceSessionId": "s",
		"threadId": "t",
		"turnId": "u",
		"hadFileChangeRequests": true,
		"insights": [
			{"itemId": "it_1", "changeDescription": "adds retry loop", "riskLevel": "Medium", "impact": "network path"},
			{"itemId": "it_2"},
			{"changeDescription": "orphan"},
			"not an object",
			{"itemId": "it_3", "changeDescription": "renames helper", "riskLevel": "nonsense"}
		]
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(tc.Insights) != 2 {
		t.Fatalf("expected 2 surviving insights, got %d", len(tc.Insights))
	}
	first := tc.Insights[0]
	if first.ItemID != "it_1" || first.RiskLevel != policy.RiskMed || first.Impact != "network path" {
		t.Fatalf("unexpected first insight: %+v", first)
	}
	// Unknown risk vocabulary falls back rather than dropping the entry.
	if tc.Insights[1].RiskLevel != policy.RiskMed {
		t.Fatalf("expected fallback risk level, got %q", tc.Insights[1].RiskLevel)
	}
}

func TestParseSuggestRequestKeepsFreeFormText(t *testing.T) {
	sr, err := ParseSuggestRequest([]byte(`{
		"projectId": "p",
		"sourceSessionId": "s",
		"threadId": "t",
		"turnId": "u",
		"userRequest": "  add dark mode  ",
		"turnTranscript": "user: hi\nassistant: hello",
		"existingDraft": "please also"
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if sr.UserRequest != "  add dark mode  " {
		t.Fatalf("expected free-form text preserved, got %q", sr.UserRequest)
	}
	if sr.TurnTranscript != "user: hi\nassistant: hello" {
		t.Fatalf("unexpected transcript: %q", sr.TurnTranscript)
	}
	if sr.ExistingDraft != "please also" {
		t.Fatalf("unexpected draft: %q", sr.ExistingDraft)
	}
}

func TestParseTurnItemStartedCollectsFragments(t *testing.T) {
	ts, err := ParseTurnItemStarted([]byte(`{
		"sessionId": "sess-1",
		"sessionTitle": "New Chat",
		"item": {
			"type": "user_message",
			"content": [
				{"text": "  first line  "},
				{"text": "   "},
				{"noText": true},
				{"text": "second line"}
			]
		}
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if ts.ItemType != ItemTypeUserMessage {
		t.Fatalf("unexpected item type: %q", ts.ItemType)
	}
	if len(ts.TextFragments) != 2 {
		t.Fatalf("expected 2 fragments, got %v", ts.TextFragments)
	}
	if ts.TextFragments[0] != "first line" || ts.TextFragments[1] != "second line" {
		t.Fatalf("unexpected fragments: %v", ts.TextFragments)
	}
}

func TestParseTurnItemStartedRequiresSessionAndItem(t *testing.T) {
	for _, payload := range []string{
		`{"item": {"type": "user_message"}}`,
		`{"sessionId": "sess-1"}`,
		`{"sessionId": "sess-1", "item": {"content": []}}`,
	} {
		_, err := ParseTurnItemStarted([]byte(payload))
		if !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("expected ErrInvalidEvent for %s, got %v", payload, err)
		}
	}
}

func TestDecodeRejectsNonObjectPayloads(t *testing.T) {
	for _, payload := range []string{`[]`, `"text"`, `null`, `not json`} {
		_, err := ParseFileChange([]byte(payload))
		if !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("expected ErrInvalidEvent for %s, got %v", payload, err)
		}
	}
}
