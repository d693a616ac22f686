// Package event defines the inbound product events and their validation.
//
// Payloads arrive loosely typed from the product surface. Each event type has
// a total parse function that either yields a fully shaped value or rejects
// the event; nothing downstream ever touches an unvalidated payload.
//
// # Validation Rules
//
//   - Required context ids must be present, non-empty strings.
//   - Header-like fields sent as a one-element array are coerced to a single
//     trimmed string.
//   - Keys that are empty after trimming are treated as absent.
//   - Boolean fields must be literal booleans.
//   - List fields are filtered element-wise: entries missing required
//     sub-fields are dropped individually, never the whole list.
package event

import (
	"errors"

	"github.com/unbound-computer/daemon-konan/policy"
)

// Type identifies an inbound product event.
type Type string

const (
	TypeFileChangeApprovalRequested Type = "file_change.approval_requested"
	TypeTurnCompleted               Type = "turn.completed"
	TypeSuggestRequested            Type = "suggest_request.requested"
	TypeTurnItemStarted             Type = "turn.item_started"
)

// ErrInvalidEvent marks a payload that failed validation. Rejection is
// permanent: malformed payloads do not self-heal, so there is no retry.
var ErrInvalidEvent = errors.New("invalid event payload")

// Context is the routing identity shared by supervision jobs. The four id
// fields are required; a context missing any of them rejects the whole event.
type Context struct {
	ProjectID       string
	SourceSessionID string
	ThreadID        string
	TurnID          string

	ItemID         string
	ApprovalID     string
	AnchorItemID   string
	UserRequest    string
	TurnTranscript string
}

// FileChangeStatusPendingApproval is the only status under which approval
// auto-actions are eligible.
const FileChangeStatusPendingApproval = "pending_approval"

// FileChange is a validated file_change.approval_requested event.
type FileChange struct {
	Context

	FileChangeStatus string
	Summary          string
	Diff             string

	// Supervision is the raw per-event policy override, highest precedence
	// in resolution. Nil when the event carries none.
	Supervision map[string]any
}

// ApprovalActionsEligible reports whether approve/reject actions may be
// instructed for this change.
func (f *FileChange) ApprovalActionsEligible() bool {
	return f.FileChangeStatus == FileChangeStatusPendingApproval && f.ApprovalID != ""
}

// Insight is one validated per-file insight from a completed turn.
type Insight struct {
	ItemID            string
	ChangeDescription string
	Impact            string
	RiskLevel         policy.RiskLevel
	RiskReason        string
}

// TurnCompleted is a validated turn.completed event.
type TurnCompleted struct {
	Context

	HadFileChangeRequests bool
	Insights              []Insight
}

// SuggestRequest is a validated suggest_request.requested event.
type SuggestRequest struct {
	Context

	ExistingDraft string
}

// TurnItemStarted is a validated turn.item_started event. It carries a
// reduced routing set: the rename trigger only needs the session, the
// pre-turn title, and the user message text.
type TurnItemStarted struct {
	SessionID    string
	ProjectID    string
	SessionTitle string
	ItemType     string

	// TextFragments are the non-empty, trimmed text pieces of the item.
	TextFragments []string
}

// ItemTypeUserMessage is the only item type the rename trigger reacts to.
const ItemTypeUserMessage = "user_message"
