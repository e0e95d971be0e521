package projections

import (
	"gradebook/internal/domain/student"
)

// RecordSource is the read side of the roster used by queries.
type RecordSource interface {
	Get(index int) (student.Record, error)
	All() []student.Record
	Classes() []string
}
