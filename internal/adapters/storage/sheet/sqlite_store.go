package sheet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gradebook/internal/adapters/storage"
	"gradebook/internal/domain/student"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// columns are the stored cells in sheet order.
var columns = student.WireKeys

var (
	selectColumns = strings.Join(columns, ", ")
	placeholders  = strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	assignments   = strings.Join(columns, " = ?, ") + " = ?"
)

// SQLiteStore implements Store using SQLite. Row position is insertion order.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// List returns every row in sheet order.
// POST: Returns an empty slice for an empty sheet
func (s *SQLiteStore) List(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM sheet_row ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		cells := make([]string, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, c := range columns {
			row[c] = cells[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Append adds row after the last one. Unknown keys are ignored.
// POST: the row is at index len(List())-1
func (s *SQLiteStore) Append(ctx context.Context, row Row) error {
	args := append(values(row), s.now().UTC().Format(timeLayout))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sheet_row (`+selectColumns+`, updated_at) VALUES (`+placeholders+`, ?)`, args...)
	return err
}

// UpdateAt overwrites every cell of the row at index.
// PRE: index >= 0
// POST: Returns ErrNoRow when index is past the last row
func (s *SQLiteStore) UpdateAt(ctx context.Context, index int, row Row) error {
	return s.atIndex(ctx, index, func(tx *sql.Tx, id int64) error {
		args := append(values(row), s.now().UTC().Format(timeLayout), id)
		_, err := tx.ExecContext(ctx, `UPDATE sheet_row SET `+assignments+`, updated_at = ? WHERE id = ?`, args...)
		return err
	})
}

// DeleteAt removes the row at index.
// PRE: index >= 0
// POST: later rows move up one position; ErrNoRow when index is past the last row
func (s *SQLiteStore) DeleteAt(ctx context.Context, index int) error {
	return s.atIndex(ctx, index, func(tx *sql.Tx, id int64) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM sheet_row WHERE id = ?`, id)
		return err
	})
}

// atIndex resolves index to a row id and runs fn in the same transaction,
// so a concurrent delete cannot shift the target in between.
func (s *SQLiteStore) atIndex(ctx context.Context, index int, fn func(tx *sql.Tx, id int64) error) error {
	if index < 0 {
		return fmt.Errorf("index %d: %w", index, ErrNoRow)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM sheet_row ORDER BY id LIMIT 1 OFFSET ?`, index).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("index %d: %w", index, ErrNoRow)
	}
	if err != nil {
		return err
	}
	if err := fn(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// values returns the cells of row in column order.
func values(row Row) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = row[c]
	}
	return out
}
