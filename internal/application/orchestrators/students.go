package orchestrators

import (
	"context"
	"log/slog"

	"gradebook/internal/domain/student"
)

// WriteResult is the outcome of a single-record write.
type WriteResult struct {
	Record student.Record
	// Reloaded is false when the write succeeded but the follow-up reload failed.
	Reloaded bool
}

// AddStudentInput carries a normalized record to create.
type AddStudentInput struct {
	Record student.Record
}

// AddStudentDeps holds dependencies for AddStudent.
type AddStudentDeps struct {
	Store  StudentStore
	Roster Roster
}

// ExecuteAddStudent validates and creates a record, then reloads the roster.
// PRE: input.Record has been normalized
// POST: on success the store holds the record; on validation failure nothing is written
func ExecuteAddStudent(ctx context.Context, input AddStudentInput, deps AddStudentDeps) (WriteResult, error) {
	rec := input.Record
	if err := rec.Validate(); err != nil {
		return WriteResult{}, err
	}
	if rec.Date == "" {
		rec.Date = student.Today()
	}
	if err := deps.Store.Create(ctx, rec); err != nil {
		slog.Error("student_add_failed", "name", rec.FullName(), "error", err)
		return WriteResult{}, &WriteError{Action: ActionAdd, Err: err}
	}
	slog.Info("student_added", "name", rec.FullName(), "class", rec.ClassName)
	return WriteResult{Record: rec, Reloaded: reload(ctx, deps.Roster)}, nil
}

// UpdateStudentInput carries the full replacement record.
type UpdateStudentInput struct {
	Index  int
	Record student.Record
}

// UpdateStudentDeps holds dependencies for UpdateStudent.
type UpdateStudentDeps struct {
	Store  StudentStore
	Roster Roster
}

// ExecuteUpdateStudent replaces the record at Index, then reloads the roster.
// PRE: Index names a loaded record
// POST: the stored record equals input.Record with Index preserved and
// Date set to today
func ExecuteUpdateStudent(ctx context.Context, input UpdateStudentInput, deps UpdateStudentDeps) (WriteResult, error) {
	if _, err := deps.Roster.Get(input.Index); err != nil {
		return WriteResult{}, err
	}
	rec := input.Record
	rec.Index = input.Index
	rec.Date = student.Today()
	if err := rec.Validate(); err != nil {
		return WriteResult{}, err
	}
	if err := deps.Store.Update(ctx, input.Index, rec); err != nil {
		slog.Error("student_update_failed", "index", input.Index, "error", err)
		return WriteResult{}, &WriteError{Action: ActionUpdate, Err: err}
	}
	slog.Info("student_updated", "index", input.Index, "name", rec.FullName())
	return WriteResult{Record: rec, Reloaded: reload(ctx, deps.Roster)}, nil
}

// DeleteStudentInput names the record to delete.
type DeleteStudentInput struct {
	Index     int
	Confirmed bool
}

// DeleteStudentDeps holds dependencies for DeleteStudent.
type DeleteStudentDeps struct {
	Store  StudentStore
	Roster Roster
}

// ExecuteDeleteStudent removes a record once confirmed, then reloads the roster.
// PRE: Index names a loaded record
// POST: without confirmation nothing is written and ErrNotConfirmed is returned
func ExecuteDeleteStudent(ctx context.Context, input DeleteStudentInput, deps DeleteStudentDeps) (WriteResult, error) {
	rec, err := deps.Roster.Get(input.Index)
	if err != nil {
		return WriteResult{}, err
	}
	if !input.Confirmed {
		return WriteResult{}, ErrNotConfirmed
	}
	if err := deps.Store.Delete(ctx, input.Index); err != nil {
		slog.Error("student_delete_failed", "index", input.Index, "error", err)
		return WriteResult{}, &WriteError{Action: ActionDelete, Err: err}
	}
	slog.Info("student_deleted", "index", input.Index, "name", rec.FullName())
	return WriteResult{Record: rec, Reloaded: reload(ctx, deps.Roster)}, nil
}

// reload refetches the roster after a write. A failed reload keeps the
// previous list; the write itself already succeeded.
func reload(ctx context.Context, r Roster) bool {
	if err := r.Load(ctx); err != nil {
		slog.Warn("roster_reload_after_write_failed", "error", err)
		return false
	}
	return true
}
