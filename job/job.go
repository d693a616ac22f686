// Package job defines the supervision job kinds, their queue envelope, and
// the deterministic identity strings (dedupe keys, message ids) attached to
// them.
//
// Jobs are created fresh per triggering event and never mutated after
// synthesis; their only lifecycle is the handoff to the external queue.
package job

// Kind identifies one supervision job type. The set is a closed, versioned
// enumeration: the queue rejects kinds it does not know.
type Kind string

const (
	KindFileChangeReview     Kind = "file_change_supervisor_review"
	KindTurnReview           Kind = "turn_supervisor_review"
	KindSuggestRequest       Kind = "suggest_request"
	KindSessionInitialRename Kind = "session_initial_rename"
)

// AgentTag marks every envelope produced by this engine.
const AgentTag = "supervisor"

// ExpectResponseNone: no job kind here awaits a synchronous worker reply.
const ExpectResponseNone = "none"

// TargetType classifies a supplemental message slot.
type TargetType string

const (
	TargetExplainability    TargetType = "explainability"
	TargetSupervisorInsight TargetType = "supervisor_insight"
)

// SupplementalTarget describes one message the worker must produce: which
// placeholder text is acceptable mid-stream and what to substitute if the
// worker errors, is canceled, or completes without real content. This is the
// contract that lets a UI render a coherent row even under worker failure.
type SupplementalTarget struct {
	MessageID        string     `json:"messageId"`
	Type             TargetType `json:"type"`
	PlaceholderTexts []string   `json:"placeholderTexts"`
	CompleteFallback string     `json:"completeFallback"`
	ErrorFallback    string     `json:"errorFallback"`
	CanceledFallback string     `json:"canceledFallback"`
}

// Job is one synthesized unit of work.
type Job struct {
	Kind Kind

	ProjectID       string
	SourceSessionID string
	ThreadID        string
	TurnID          string

	DedupeKey           string
	InstructionText     string
	SupplementalTargets []SupplementalTarget
}

// Envelope is the wire shape handed to the job queue.
type Envelope struct {
	Type            Kind    `json:"type"`
	ProjectID       string  `json:"projectId"`
	SourceSessionID string  `json:"sourceSessionId"`
	Payload         Payload `json:"payload"`
}

// Payload carries the routing ids and the synthesized instruction.
type Payload struct {
	Agent               string               `json:"agent"`
	JobKind             Kind                 `json:"jobKind"`
	ProjectID           string               `json:"projectId"`
	SourceSessionID     string               `json:"sourceSessionId"`
	ThreadID            string               `json:"threadId,omitempty"`
	TurnID              string               `json:"turnId,omitempty"`
	DedupeKey           string               `json:"dedupeKey"`
	ExpectResponse      string               `json:"expectResponse"`
	InstructionText     string               `json:"instructionText"`
	SupplementalTargets []SupplementalTarget `json:"supplementalTargets,omitempty"`
}

// Envelope builds the queue envelope for the job.
func (j *Job) Envelope() *Envelope {
	return &Envelope{
		Type:            j.Kind,
		ProjectID:       j.ProjectID,
		SourceSessionID: j.SourceSessionID,
		Payload: Payload{
			Agent:               AgentTag,
			JobKind:             j.Kind,
			ProjectID:           j.ProjectID,
			SourceSessionID:     j.SourceSessionID,
			ThreadID:            j.ThreadID,
			TurnID:              j.TurnID,
			DedupeKey:           j.DedupeKey,
			ExpectResponse:      ExpectResponseNone,
			InstructionText:     j.InstructionText,
			SupplementalTargets: j.SupplementalTargets,
		},
	}
}
