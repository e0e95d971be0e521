package orchestrators

import (
	"context"

	"gradebook/internal/domain/student"
)

// StudentStore is the write side of the remote store.
type StudentStore interface {
	Create(ctx context.Context, rec student.Record) error
	Update(ctx context.Context, index int, rec student.Record) error
	Delete(ctx context.Context, index int) error
}

// Roster is the loaded record set orchestrators read from and reload after writes.
type Roster interface {
	Get(index int) (student.Record, error)
	All() []student.Record
	Classes() []string
	Load(ctx context.Context) error
}
