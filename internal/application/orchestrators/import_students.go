package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"gradebook/internal/domain/student"
)

// ImportStudentsInput carries parsed spreadsheet rows and the confirmation.
// PRE: Rows come from spreadsheet.ReadRows (header already applied)
// INVARIANT: Confirmed must equal len(Rows); anything else writes nothing
type ImportStudentsInput struct {
	Rows      []map[string]any
	Confirmed int
}

// ImportStudentsResult holds aggregate counts and per-row errors.
type ImportStudentsResult struct {
	Total    int
	Created  int
	Errors   []ImportRowError
	Reloaded bool
}

// ImportRowError describes a row that was skipped.
type ImportRowError struct {
	Row     int // spreadsheet row number, header is row 1
	Name    string
	Message string
}

// ImportStudentsDeps holds dependencies for ImportStudents.
type ImportStudentsDeps struct {
	Store  StudentStore
	Roster Roster
}

// ExecuteImportStudents creates one record per row, sequentially, then
// reloads the roster once.
// POST: failed rows are logged and listed in Errors; the others are created
func ExecuteImportStudents(ctx context.Context, input ImportStudentsInput, deps ImportStudentsDeps) (ImportStudentsResult, error) {
	if input.Confirmed != len(input.Rows) || len(input.Rows) == 0 {
		return ImportStudentsResult{}, fmt.Errorf("%w: %d lignes à importer", ErrNotConfirmed, len(input.Rows))
	}

	result := ImportStudentsResult{Total: len(input.Rows)}
	for i, row := range input.Rows {
		if err := ctx.Err(); err != nil {
			slog.Warn("students_import_cancelled", "created", result.Created, "remaining", len(input.Rows)-i)
			result.Reloaded = reload(context.WithoutCancel(ctx), deps.Roster)
			return result, err
		}

		rowNum := i + 2
		rec := student.Normalize(row, i)
		if err := rec.Validate(); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Name: rec.FullName(), Message: err.Error()})
			continue
		}
		if err := deps.Store.Create(ctx, rec); err != nil {
			slog.Error("students_import_row_failed", "row", rowNum, "name", rec.FullName(), "error", err)
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Name: rec.FullName(), Message: err.Error()})
			continue
		}
		result.Created++
	}

	result.Reloaded = reload(ctx, deps.Roster)
	slog.Info("students_import", "total", result.Total, "created", result.Created, "failed", len(result.Errors))
	return result, nil
}
