package supervisor

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/unbound-computer/daemon-konan/event"
	"github.com/unbound-computer/daemon-konan/instruction"
	"github.com/unbound-computer/daemon-konan/job"
)

// DefaultSessionTitle is the placeholder title new sessions start with. The
// rename trigger fires only while the session still carries it, so a session
// is renamed at most once and a user-chosen title is never overridden.
const DefaultSessionTitle = "New Chat"

// sessionProjectNamespace derives the synthetic project id for rename jobs
// when the event carries no project id.
var sessionProjectNamespace = uuid.MustParse("c9c1f2aa-5a50-4f7c-9d4e-3a8b1e6f0d27")

// HandleTurnItemStarted watches turn-start signals and raises a rename job
// under a strict title precondition. This is the narrow variant of the full
// pipeline: no policy resolution, one job kind.
func (e *Engine) HandleTurnItemStarted(ctx context.Context, payload []byte) (Outcome, error) {
	ts, err := event.ParseTurnItemStarted(payload)
	if err != nil {
		return e.reject(event.TypeTurnItemStarted, err)
	}

	if ts.ItemType != event.ItemTypeUserMessage {
		return OutcomeSuppressed, nil
	}

	// Precondition, checked trim- and case-insensitively: the current title
	// must still be the default placeholder.
	if !strings.EqualFold(strings.TrimSpace(ts.SessionTitle), DefaultSessionTitle) {
		e.logger.Debug("rename suppressed, session already titled")
		return OutcomeSuppressed, nil
	}

	justification := strings.Join(ts.TextFragments, "\n")
	if justification == "" {
		e.logger.Debug("rename suppressed, user message has no text")
		return OutcomeSuppressed, nil
	}

	projectID := ts.ProjectID
	if projectID == "" {
		projectID = SyntheticProjectID(ts.SessionID)
	}

	return e.enqueue(ctx, synthesizeSessionRename(projectID, ts.SessionID, justification))
}

// SyntheticProjectID derives a stable project identity from the session
// alone. Repeated calls for the same session yield the same id.
func SyntheticProjectID(sessionID string) string {
	return "project-" + uuid.NewSHA1(sessionProjectNamespace, []byte(sessionID)).String()
}

// synthesizeSessionRename builds the one-shot rename job.
func synthesizeSessionRename(projectID, sessionID, justification string) *job.Job {
	var in instruction.Instruction
	in.Add(instruction.Section{Title: "Context", Items: []string{
		"Project: " + projectID,
		"Session: " + sessionID,
		"The session still carries the default placeholder title.",
		"The user opened the session with this message:\n" + justification,
	}})
	in.Add(instruction.Section{Title: "Execute these steps in order", Numbered: true, Items: []string{
		"Derive a short descriptive title for the session from the user's opening message.",
		"Rename the session to that title.",
	}})
	in.Add(instruction.Section{Title: "Rules", Items: []string{
		"The title must be a short noun phrase, at most a few words.",
		"If the session was already renamed, treat the rename as reconciled and finish successfully.",
	}})

	return &job.Job{
		Kind:            job.KindSessionInitialRename,
		ProjectID:       projectID,
		SourceSessionID: sessionID,
		DedupeKey:       job.SessionRenameDedupeKey(sessionID),
		InstructionText: in.Render(),
	}
}
