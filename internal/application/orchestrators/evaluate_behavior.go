package orchestrators

import (
	"context"
	"log/slog"

	"gradebook/internal/domain/behavior"
	"gradebook/internal/domain/student"
)

// EvaluateBehaviorInput carries one behavior evaluation.
type EvaluateBehaviorInput struct {
	Index     int
	Checklist behavior.Checklist
}

// EvaluateBehaviorDeps holds dependencies for EvaluateBehavior.
type EvaluateBehaviorDeps struct {
	Store  StudentStore
	Roster Roster
}

// ExecuteEvaluateBehavior recomputes the score from the checklist and
// pushes the full record back to the store.
// PRE: Index names a loaded record
// POST: the stored behavior block is Checklist.Apply() and Date is today;
// other fields are unchanged
// INVARIANT: the score is always recomputed here, never taken from the client
func ExecuteEvaluateBehavior(ctx context.Context, input EvaluateBehaviorInput, deps EvaluateBehaviorDeps) (WriteResult, error) {
	rec, err := deps.Roster.Get(input.Index)
	if err != nil {
		return WriteResult{}, err
	}
	rec.Behavior = input.Checklist.Apply()
	rec.Date = student.Today()
	if err := deps.Store.Update(ctx, input.Index, rec); err != nil {
		slog.Error("behavior_save_failed", "index", input.Index, "error", err)
		return WriteResult{}, &WriteError{Action: ActionBehavior, Err: err}
	}
	slog.Info("behavior_saved", "index", input.Index, "score", rec.Behavior.Score.Value(), "set", rec.Behavior.Score.IsSet())
	return WriteResult{Record: rec, Reloaded: reload(ctx, deps.Roster)}, nil
}
