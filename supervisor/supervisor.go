// Package supervisor implements the event-to-job orchestration engine.
//
// The engine converts inbound product events into deduplicated supervision
// jobs for the autonomous worker, together with a deterministic instruction
// payload encoding exactly what the worker must do and in what order.
//
// # Key Invariants
//
//   - Stateless: the engine holds no per-event state and needs no locks;
//     events for unrelated sessions may be handled concurrently.
//   - Repeatable: (event, resolved policy) maps to the same job and dedupe
//     key on every invocation; at-most-one execution is the queue's problem.
//   - Total: every syntactically-parseable event reaches a terminal outcome
//     (enqueued, suppressed, or rejected); nothing panics, nothing retries.
//   - Fail-open: a settings-store failure degrades to the default policy
//     with a warning instead of blocking the originating product event.
package supervisor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/unbound-computer/daemon-konan/event"
	"github.com/unbound-computer/daemon-konan/job"
	"github.com/unbound-computer/daemon-konan/policy"
)

var (
	ErrQueueRequired = errors.New("job queue is required")
	ErrUnknownEvent  = errors.New("unknown event type")
)

// Enqueuer hands a job envelope to the external queue. The call is
// fire-and-forget from the engine's perspective: acceptance of the enqueue is
// the only synchronous result.
type Enqueuer interface {
	Enqueue(ctx context.Context, envelope *job.Envelope) error
}

// SettingsStore reads the stored per-session supervision settings. A nil
// store means every session runs on the injected defaults.
type SettingsStore interface {
	FileChangeSettings(ctx context.Context, sessionID string) (map[string]any, error)
}

// Options configures the Engine. All collaborators are injected, never
// constructed internally.
type Options struct {
	// Queue receives synthesized job envelopes (required).
	Queue Enqueuer

	// Settings is the optional per-session settings store.
	Settings SettingsStore

	// Defaults is the process-level default policy, typically built by the
	// config package from environment variables. Nil means the hard-coded
	// defaults.
	Defaults *policy.FileChangePolicy

	// Logger is the zap logger instance.
	Logger *zap.Logger
}

// Engine is the orchestration core. It is safe for concurrent use.
type Engine struct {
	queue    Enqueuer
	settings SettingsStore
	defaults policy.FileChangePolicy
	logger   *zap.Logger
}

// New creates a new Engine.
func New(opts Options) (*Engine, error) {
	if opts.Queue == nil {
		return nil, ErrQueueRequired
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	defaults := policy.Default()
	if opts.Defaults != nil {
		defaults = *opts.Defaults
	}
	return &Engine{
		queue:    opts.Queue,
		settings: opts.Settings,
		defaults: defaults,
		logger:   opts.Logger,
	}, nil
}

// Outcome is the terminal result of handling one event.
type Outcome string

const (
	// OutcomeEnqueued: a job was synthesized and handed to the queue.
	OutcomeEnqueued Outcome = "enqueued"

	// OutcomeSuppressed: the event was valid but nothing useful remains for
	// the worker to do. This is a no-op, not an error.
	OutcomeSuppressed Outcome = "suppressed"

	// OutcomeRejected: the payload failed validation and was permanently
	// dropped. Malformed payloads do not self-heal, so there is no retry.
	OutcomeRejected Outcome = "rejected"
)

// HandleEvent dispatches a raw payload by declared event type.
func (e *Engine) HandleEvent(ctx context.Context, typ event.Type, payload []byte) (Outcome, error) {
	switch typ {
	case event.TypeFileChangeApprovalRequested:
		return e.HandleFileChangeApprovalRequested(ctx, payload)
	case event.TypeTurnCompleted:
		return e.HandleTurnCompleted(ctx, payload)
	case event.TypeSuggestRequested:
		return e.HandleSuggestRequested(ctx, payload)
	case event.TypeTurnItemStarted:
		return e.HandleTurnItemStarted(ctx, payload)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, typ)
	}
}

// reject logs the structured warning for a permanently dropped event.
func (e *Engine) reject(typ event.Type, err error) (Outcome, error) {
	e.logger.Warn("rejecting malformed event",
		zap.String("event_type", string(typ)),
		zap.Error(err),
	)
	return OutcomeRejected, nil
}

// enqueue hands a synthesized job to the queue and logs the outcome.
func (e *Engine) enqueue(ctx context.Context, j *job.Job) (Outcome, error) {
	if err := e.queue.Enqueue(ctx, j.Envelope()); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", j.Kind, err)
	}
	e.logger.Info("job enqueued",
		zap.String("job_kind", string(j.Kind)),
		zap.String("dedupe_key", j.DedupeKey),
		zap.String("project_id", j.ProjectID),
		zap.String("session_id", j.SourceSessionID),
	)
	return OutcomeEnqueued, nil
}

// resolveFileChangePolicy applies the merge precedence: per-event override
// over stored session settings over injected defaults. The stored read may
// fail; availability of supervision must not block the product event, so the
// failure is logged and the layer skipped.
func (e *Engine) resolveFileChangePolicy(ctx context.Context, fc *event.FileChange) policy.FileChangePolicy {
	overlays := make([]policy.Overlay, 0, 2)

	if e.settings != nil {
		raw, err := e.settings.FileChangeSettings(ctx, fc.SourceSessionID)
		if err != nil {
			e.logger.Warn("settings read failed, falling back to default policy",
				zap.String("session_id", fc.SourceSessionID),
				zap.Error(err),
			)
		} else if raw != nil {
			overlays = append(overlays, policy.OverlayFromSettings(raw))
		}
	}

	if fc.Supervision != nil {
		overlays = append(overlays, policy.OverlayFromSettings(fc.Supervision))
	}

	return policy.Resolve(e.defaults, overlays...)
}
