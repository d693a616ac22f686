package supervisor

import (
	"context"

	"github.com/unbound-computer/daemon-konan/event"
	"github.com/unbound-computer/daemon-konan/instruction"
	"github.com/unbound-computer/daemon-konan/job"
)

// HandleTurnCompleted processes a turn.completed payload. Turns without file
// change requests have nothing to review and produce no job.
func (e *Engine) HandleTurnCompleted(ctx context.Context, payload []byte) (Outcome, error) {
	tc, err := event.ParseTurnCompleted(payload)
	if err != nil {
		return e.reject(event.TypeTurnCompleted, err)
	}

	if !tc.HadFileChangeRequests {
		e.logger.Debug("turn review suppressed, turn had no file change requests")
		return OutcomeSuppressed, nil
	}

	return e.enqueue(ctx, synthesizeTurnReview(tc))
}

// synthesizeTurnReview builds the whole-turn review job. There is no
// branching policy here: the job fully enumerates the provided insights and
// defers judgment to the worker.
func synthesizeTurnReview(tc *event.TurnCompleted) *job.Job {
	reviewID := job.TurnReviewMessageID(tc.ThreadID, tc.TurnID)

	var in instruction.Instruction
	in.Add(instruction.Section{Title: "Context", Items: []string{
		"Project: " + tc.ProjectID,
		"Session: " + tc.SourceSessionID,
		"Thread: " + tc.ThreadID,
		"Turn: " + tc.TurnID,
		"The turn completed with file change requests.",
	}})

	var insights []string
	for _, insight := range tc.Insights {
		line := "Item " + insight.ItemID + ": " + insight.ChangeDescription
		if insight.Impact != "" {
			line += " Impact: " + insight.Impact + "."
		}
		line += " Risk: " + string(insight.RiskLevel) + "."
		if insight.RiskReason != "" {
			line += " Reason: " + insight.RiskReason
		}
		insights = append(insights, line)
	}
	if len(insights) == 0 {
		insights = []string{"No per-file insights were provided for this turn."}
	}
	in.Add(instruction.Section{Title: "Per-file insights", Items: insights})

	in.Add(instruction.Section{Title: "Execute these steps in order", Numbered: true, Items: []string{
		"Review the turn as a whole using the insights above and the session transcript.",
		"Write or update the turn review message " + reviewID + " with your overall assessment.",
	}})
	in.Add(instruction.Section{Title: "Rules", Items: []string{
		"Weigh the insights yourself; this job defers all judgment to you.",
		"Do not approve, reject, or steer anything from this job.",
	}})

	return &job.Job{
		Kind:            job.KindTurnReview,
		ProjectID:       tc.ProjectID,
		SourceSessionID: tc.SourceSessionID,
		ThreadID:        tc.ThreadID,
		TurnID:          tc.TurnID,
		DedupeKey:       job.TurnReviewDedupeKey(tc.ThreadID, tc.TurnID),
		InstructionText: in.Render(),
	}
}
