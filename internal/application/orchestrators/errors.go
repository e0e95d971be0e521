package orchestrators

import (
	"errors"
	"fmt"

	"gradebook/internal/adapters/sheetapi"
)

// Action labels used in user-facing failure messages.
const (
	ActionAdd      = "l'ajout"
	ActionUpdate   = "la mise à jour"
	ActionDelete   = "la suppression"
	ActionBehavior = "l'enregistrement du comportement"
	ActionImport   = "l'import"
)

// ErrNotConfirmed is returned when a destructive or bulk action lacks its confirmation.
var ErrNotConfirmed = errors.New("confirmation requise")

// WriteError is a failed store write, named by the action it belonged to.
type WriteError struct {
	Action string
	Err    error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	msg := fmt.Sprintf("Échec de %s: %v", e.Action, e.Err)
	if e.Unverified() {
		msg += " (la réponse est illisible, vérifiez manuellement la feuille)"
	}
	return msg
}

// Unwrap returns the store error.
func (e *WriteError) Unwrap() error { return e.Err }

// Unverified reports whether the write may have succeeded despite the error:
// the store answered but its response could not be read.
func (e *WriteError) Unverified() bool {
	return errors.Is(e.Err, sheetapi.ErrMalformed) || errors.Is(e.Err, sheetapi.ErrNotJSON)
}
