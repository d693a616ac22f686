package supervisor

import (
	"context"

	"github.com/unbound-computer/daemon-konan/event"
	"github.com/unbound-computer/daemon-konan/instruction"
	"github.com/unbound-computer/daemon-konan/job"
)

// HandleSuggestRequested processes a suggest_request.requested payload. The
// session keys the dedupe: at most one live suggestion per session.
func (e *Engine) HandleSuggestRequested(ctx context.Context, payload []byte) (Outcome, error) {
	sr, err := event.ParseSuggestRequest(payload)
	if err != nil {
		return e.reject(event.TypeSuggestRequested, err)
	}
	return e.enqueue(ctx, synthesizeSuggestRequest(sr))
}

// synthesizeSuggestRequest builds the suggested-next-message job.
func synthesizeSuggestRequest(sr *event.SuggestRequest) *job.Job {
	var in instruction.Instruction

	contextItems := []string{
		"Project: " + sr.ProjectID,
		"Session: " + sr.SourceSessionID,
		"Thread: " + sr.ThreadID,
		"Turn: " + sr.TurnID,
	}
	if sr.UserRequest != "" {
		contextItems = append(contextItems, "Original user request:\n"+sr.UserRequest)
	}
	if sr.TurnTranscript != "" {
		contextItems = append(contextItems, "Turn transcript:\n"+sr.TurnTranscript)
	}
	if sr.ExistingDraft != "" {
		contextItems = append(contextItems, "Existing draft to improve on:\n"+sr.ExistingDraft)
	}
	in.Add(instruction.Section{Title: "Context", Items: contextItems})

	in.Add(instruction.Section{Title: "Execute these steps in order", Numbered: true, Items: []string{
		"Read the context above and decide what the user would most plausibly ask for next.",
		"Produce exactly one suggested next message.",
	}})
	in.Add(instruction.Section{Title: "Rules", Items: []string{
		"The suggestion must be a concise request written in the user's voice, not an assistant answer.",
		"Output the suggestion text alone: no wrapping markup, no quoting, no preamble.",
		"Do not offer multiple options or alternatives.",
	}})

	return &job.Job{
		Kind:            job.KindSuggestRequest,
		ProjectID:       sr.ProjectID,
		SourceSessionID: sr.SourceSessionID,
		ThreadID:        sr.ThreadID,
		TurnID:          sr.TurnID,
		DedupeKey:       job.SuggestRequestDedupeKey(sr.SourceSessionID),
		InstructionText: in.Render(),
	}
}
