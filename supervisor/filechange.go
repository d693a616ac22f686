package supervisor

import (
	"context"

	"github.com/unbound-computer/daemon-konan/event"
	"github.com/unbound-computer/daemon-konan/instruction"
	"github.com/unbound-computer/daemon-konan/job"
	"github.com/unbound-computer/daemon-konan/policy"
)

// HandleFileChangeApprovalRequested processes a file_change.approval_requested
// payload: validate, resolve policy, synthesize, enqueue.
func (e *Engine) HandleFileChangeApprovalRequested(ctx context.Context, payload []byte) (Outcome, error) {
	fc, err := event.ParseFileChange(payload)
	if err != nil {
		return e.reject(event.TypeFileChangeApprovalRequested, err)
	}

	pol := e.resolveFileChangePolicy(ctx, fc)

	j, ok := synthesizeFileChangeReview(fc, pol)
	if !ok {
		// Explainability off and every auto-action disabled: there is
		// nothing useful for the worker to do.
		e.logger.Debug("file-change supervision suppressed, all functions disabled")
		return OutcomeSuppressed, nil
	}

	return e.enqueue(ctx, j)
}

// synthesizeFileChangeReview builds the file-change review job. It is pure:
// the same event and policy always yield the same job. The false return is
// the suppression case, never an error.
func synthesizeFileChangeReview(fc *event.FileChange, pol policy.FileChangePolicy) (*job.Job, bool) {
	anyAction := pol.AnyActionEnabled()
	if !pol.DiffExplainability && !anyAction {
		return nil, false
	}

	anchor := job.AnchorItem(fc.AnchorItemID, fc.ItemID)
	explainID := job.ExplainabilityMessageID(fc.ThreadID, fc.TurnID, anchor)
	insightID := job.InsightMessageID(fc.ThreadID, fc.TurnID, anchor)
	eligible := fc.ApprovalActionsEligible()
	actions := pol.AutoActions

	var in instruction.Instruction

	contextItems := []string{
		"Project: " + fc.ProjectID,
		"Session: " + fc.SourceSessionID,
		"Thread: " + fc.ThreadID,
		"Turn: " + fc.TurnID,
	}
	if fc.ItemID != "" {
		contextItems = append(contextItems, "Change item: "+fc.ItemID)
	}
	if fc.ApprovalID != "" {
		contextItems = append(contextItems, "Approval: "+fc.ApprovalID)
	}
	status := fc.FileChangeStatus
	if status == "" {
		status = "unknown"
	}
	contextItems = append(contextItems, "File change status: "+status)
	if fc.Summary != "" {
		contextItems = append(contextItems, "Change summary: "+fc.Summary)
	}
	if fc.Diff != "" {
		contextItems = append(contextItems, "Diff:\n"+fc.Diff)
	}
	in.Add(instruction.Section{Title: "Context", Items: contextItems})

	var steps []string
	if pol.DiffExplainability {
		steps = append(steps,
			"Write or update the diff explainability message "+explainID+
				", explaining what this change does and why.")
	}
	if anyAction {
		steps = append(steps,
			"Write or update the supervisor insight message "+insightID+
				", recording your assessed risk level and the reason for it.")
		steps = append(steps,
			"Evaluate the auto-action rules below against your assessed risk and execute only the eligible, enabled actions.")
		steps = append(steps,
			"If an approval or steer target was already resolved by the user, treat it as reconciled and finish successfully. Do not retry it and do not report an error.")
	}
	in.Add(instruction.Section{Title: "Execute these steps in order", Numbered: true, Items: steps})

	var rules []string
	if anyAction {
		if actions.Approve.Enabled || actions.Reject.Enabled {
			if eligible {
				rules = append(rules,
					"Approval actions are eligible: the file change is pending approval under approval "+fc.ApprovalID+".")
			} else {
				rules = append(rules,
					"Approval actions are not eligible for this change. Do not approve and do not reject.")
			}
		}
		if actions.Approve.Enabled && eligible {
			rules = append(rules,
				"Auto-approve the change when your assessed risk is at or below "+string(actions.Approve.Threshold)+".")
		}
		if actions.Reject.Enabled && eligible {
			rules = append(rules,
				"Auto-reject the change when your assessed risk is at or above "+string(actions.Reject.Threshold)+".")
		}
		if actions.Approve.Enabled && actions.Reject.Enabled {
			rules = append(rules,
				"If both the approve and reject conditions match the same risk level, reject wins.")
		}
		if actions.Steer.Enabled {
			rules = append(rules,
				"Auto-steer the turn when your assessed risk is at or above "+string(actions.Steer.Threshold)+
					" and the turn is still active. Confirm the turn is active before steering.")
		}
	}
	if !actions.Approve.Enabled {
		rules = append(rules, "Do not approve this change on your own initiative.")
	}
	if !actions.Reject.Enabled {
		rules = append(rules, "Do not reject this change on your own initiative.")
	}
	if !actions.Steer.Enabled {
		rules = append(rules, "Do not steer the turn.")
	}
	in.Add(instruction.Section{Title: "Rules", Items: rules})

	var targets []job.SupplementalTarget
	if pol.DiffExplainability {
		targets = append(targets, job.SupplementalTarget{
			MessageID:        explainID,
			Type:             job.TargetExplainability,
			PlaceholderTexts: []string{"Analyzing the proposed change..."},
			CompleteFallback: "No explanation was produced for this change.",
			ErrorFallback:    "The supervisor could not explain this change.",
			CanceledFallback: "Explanation canceled.",
		})
	}
	if anyAction {
		targets = append(targets, job.SupplementalTarget{
			MessageID:        insightID,
			Type:             job.TargetSupervisorInsight,
			PlaceholderTexts: []string{"Assessing the risk of this change..."},
			CompleteFallback: "No risk assessment was recorded for this change.",
			ErrorFallback:    "The supervisor could not assess this change.",
			CanceledFallback: "Risk assessment canceled.",
		})
	}

	return &job.Job{
		Kind:                job.KindFileChangeReview,
		ProjectID:           fc.ProjectID,
		SourceSessionID:     fc.SourceSessionID,
		ThreadID:            fc.ThreadID,
		TurnID:              fc.TurnID,
		DedupeKey:           job.FileChangeReviewDedupeKey(fc.ThreadID, fc.TurnID, fc.ItemID, fc.ApprovalID),
		InstructionText:     in.Render(),
		SupplementalTargets: targets,
	}, true
}
