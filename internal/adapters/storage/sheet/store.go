// Package sheet stores the spreadsheet rows behind the remote store service.
// Rows are addressed by position, as in a spreadsheet: deleting a row shifts
// every later row up by one.
package sheet

import (
	"context"
	"errors"
)

// ErrNoRow is returned when an index does not address an existing row.
var ErrNoRow = errors.New("no row at index")

// Row is one spreadsheet row keyed by column name. Missing columns read as "".
type Row map[string]string

// Store is the positional row store.
type Store interface {
	// List returns every row in sheet order.
	List(ctx context.Context) ([]Row, error)
	// Append adds a row after the last one.
	Append(ctx context.Context, row Row) error
	// UpdateAt overwrites the row at the 0-based index.
	UpdateAt(ctx context.Context, index int, row Row) error
	// DeleteAt removes the row at the 0-based index.
	DeleteAt(ctx context.Context, index int) error
}
