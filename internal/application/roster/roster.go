// Package roster holds the loaded student list and the screen's
// filter/sort view over it.
package roster

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gradebook/internal/domain/student"
)

// Source fetches the raw rows of the remote store.
type Source interface {
	GetAll(ctx context.Context) ([]map[string]any, error)
}

// Roster is the in-memory list of records, rebuilt wholesale on every load.
// It is safe for concurrent use.
type Roster struct {
	source Source

	mu       sync.RWMutex
	records  []student.Record
	byIndex  map[int]int
	loadedAt time.Time
}

// New creates an empty Roster reading from source.
func New(source Source) *Roster {
	return &Roster{source: source, byIndex: map[int]int{}}
}

// Load fetches every row and replaces the list.
// PRE: none
// POST: on success the list mirrors the store; on error the previous list is kept
func (r *Roster) Load(ctx context.Context) error {
	start := time.Now()
	rows, err := r.source.GetAll(ctx)
	if err != nil {
		slog.Error("roster_load_failed", "error", err)
		return fmt.Errorf("chargement: %w", err)
	}
	records := make([]student.Record, len(rows))
	for i, row := range rows {
		records[i] = student.Normalize(row, i)
	}
	r.Replace(records)
	slog.Info("roster_loaded", "count", len(records), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Replace swaps in records. When two records claim the same index, every
// record falls back to its position so keys stay unique.
// INVARIANT: Index is unique across the stored list
func (r *Roster) Replace(records []student.Record) {
	records = slices.Clone(records)
	byIndex := make(map[int]int, len(records))
	for pos, rec := range records {
		if _, dup := byIndex[rec.Index]; dup {
			slog.Warn("roster_duplicate_index", "index", rec.Index)
			byIndex = make(map[int]int, len(records))
			for p := range records {
				records[p].Index = p
				byIndex[p] = p
			}
			break
		}
		byIndex[rec.Index] = pos
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = records
	r.byIndex = byIndex
	r.loadedAt = time.Now()
}

// Get returns the record with the given index.
func (r *Roster) Get(index int) (student.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, ok := r.byIndex[index]
	if !ok {
		return student.Record{}, fmt.Errorf("élève %d: %w", index, student.ErrNotFound)
	}
	return r.records[pos], nil
}

// All returns a copy of the list in store order.
func (r *Roster) All() []student.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]student.Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of loaded records.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// LoadedAt returns when the list was last replaced; zero before the first load.
func (r *Roster) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// Classes returns the distinct non-empty class names in French collation order.
func (r *Roster) Classes() []string {
	r.mu.RLock()
	seen := map[string]bool{}
	var classes []string
	for _, rec := range r.records {
		if rec.ClassName != "" && !seen[rec.ClassName] {
			seen[rec.ClassName] = true
			classes = append(classes, rec.ClassName)
		}
	}
	r.mu.RUnlock()

	c := newCollator()
	sort.SliceStable(classes, func(i, j int) bool {
		return c.CompareString(classes[i], classes[j]) < 0
	})
	return classes
}

// newCollator returns a French collator. Collators are not safe for
// concurrent use, so every sort builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.French)
}
