package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unbound-computer/daemon-konan/policy"
)

// decodePayload unmarshals a raw payload into a generic object. A payload
// that is not a JSON object is invalid for every event type.
func decodePayload(payload []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidEvent)
	}
	return m, nil
}

// parseContext validates the shared routing identity. All four required ids
// must be present and non-empty; otherwise the owning event is rejected.
func parseContext(m map[string]any) (Context, error) {
	var ctx Context
	var err error

	if ctx.ProjectID, err = requiredString(m, "projectId"); err != nil {
		return Context{}, err
	}
	if ctx.SourceSessionID, err = requiredString(m, "sourceSessionId"); err != nil {
		return Context{}, err
	}
	if ctx.ThreadID, err = requiredString(m, "threadId"); err != nil {
		return Context{}, err
	}
	if ctx.TurnID, err = requiredString(m, "turnId"); err != nil {
		return Context{}, err
	}

	ctx.ItemID, _ = stringField(m, "itemId")
	ctx.ApprovalID, _ = stringField(m, "approvalId")
	ctx.AnchorItemID, _ = stringField(m, "anchorItemId")
	ctx.UserRequest, _ = textField(m, "userRequest")
	ctx.TurnTranscript, _ = textField(m, "turnTranscript")

	return ctx, nil
}

// ParseFileChange validates a file_change.approval_requested payload.
func ParseFileChange(payload []byte) (*FileChange, error) {
	m, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	ctx, err := parseContext(m)
	if err != nil {
		return nil, err
	}

	fc := &FileChange{Context: ctx}
	fc.FileChangeStatus, _ = stringField(m, "fileChangeStatus")
	fc.Summary, _ = textField(m, "summary")
	fc.Diff, _ = textField(m, "diff")
	if override, ok := m["supervision"].(map[string]any); ok {
		fc.Supervision = override
	}
	return fc, nil
}

// ParseTurnCompleted validates a turn.completed payload. The
// hadFileChangeRequests flag must be a literal boolean; a missing or
// wrong-typed value invalidates the whole event rather than reading as false.
func ParseTurnCompleted(payload []byte) (*TurnCompleted, error) {
	m, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	ctx, err := parseContext(m)
	if err != nil {
		return nil, err
	}

	had, ok := boolField(m, "hadFileChangeRequests")
	if !ok {
		return nil, fmt.Errorf("%w: hadFileChangeRequests must be a boolean", ErrInvalidEvent)
	}

	tc := &TurnCompleted{Context: ctx, HadFileChangeRequests: had}
	for _, entry := range listField(m, "insights") {
		insight, ok := parseInsight(entry)
		if !ok {
			// Entries missing required sub-fields are dropped individually.
			continue
		}
		tc.Insights = append(tc.Insights, insight)
	}
	return tc, nil
}

// parseInsight validates one per-file insight entry. Item id and change
// description are required; the rest is optional enrichment.
func parseInsight(entry map[string]any) (Insight, bool) {
	itemID, ok := stringField(entry, "itemId")
	if !ok {
		return Insight{}, false
	}
	change, ok := textField(entry, "changeDescription")
	if !ok {
		return Insight{}, false
	}

	insight := Insight{ItemID: itemID, ChangeDescription: change}
	insight.Impact, _ = textField(entry, "impact")
	insight.RiskReason, _ = textField(entry, "riskReason")

	raw, _ := stringField(entry, "riskLevel")
	insight.RiskLevel = policy.ParseRiskLevel(raw, policy.RiskMed)
	return insight, true
}

// ParseSuggestRequest validates a suggest_request.requested payload.
func ParseSuggestRequest(payload []byte) (*SuggestRequest, error) {
	m, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	ctx, err := parseContext(m)
	if err != nil {
		return nil, err
	}

	sr := &SuggestRequest{Context: ctx}
	sr.ExistingDraft, _ = textField(m, "existingDraft")
	return sr, nil
}

// ParseTurnItemStarted validates a turn.item_started payload. Only the
// session id and the item object are required; the project id may be absent
// and is synthesized downstream.
func ParseTurnItemStarted(payload []byte) (*TurnItemStarted, error) {
	m, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}

	sessionID, err := requiredString(m, "sessionId")
	if err != nil {
		return nil, err
	}

	item, ok := m["item"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing required field %q", ErrInvalidEvent, "item")
	}
	itemType, err := requiredString(item, "type")
	if err != nil {
		return nil, err
	}

	ts := &TurnItemStarted{
		SessionID: sessionID,
		ItemType:  itemType,
	}
	ts.ProjectID, _ = stringField(m, "projectId")
	ts.SessionTitle, _ = stringField(m, "sessionTitle")

	for _, entry := range listField(item, "content") {
		text, ok := entry["text"].(string)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		ts.TextFragments = append(ts.TextFragments, text)
	}

	return ts, nil
}
