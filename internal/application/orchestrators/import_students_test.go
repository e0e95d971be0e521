package orchestrators

import (
	"context"
	"errors"
	"testing"
)

func importRows() []map[string]any {
	return []map[string]any{
		{"Nom": "Dupont", "Prénom": "Marie", "Classe": "CM1", "Écriture": "15"},
		{"nom": "Martin", "prenom": "Léa", "classe": "CM1"},
		{"Nom": "", "Prénom": "Sans nom"},
		{"Nom": "Bloqué", "Prénom": "Paul"},
	}
}

func TestExecuteImportStudents(t *testing.T) {
	sheet, r := newFixture(t)
	sheet.failName = "Bloqué"

	res, err := ExecuteImportStudents(context.Background(), ImportStudentsInput{Rows: importRows(), Confirmed: 4},
		ImportStudentsDeps{Store: sheet, Roster: r})
	if err != nil {
		t.Fatalf("ExecuteImportStudents() error: %v", err)
	}
	if res.Total != 4 || res.Created != 2 || len(res.Errors) != 2 {
		t.Fatalf("result = %+v, want 4 total / 2 created / 2 errors", res)
	}
	if res.Errors[0].Row != 4 || res.Errors[1].Row != 5 || res.Errors[1].Name != "Bloqué Paul" {
		t.Errorf("errors = %+v", res.Errors)
	}
	if !res.Reloaded || r.Len() != 2 {
		t.Errorf("reloaded=%v len=%d", res.Reloaded, r.Len())
	}
	want := []string{"create Dupont", "create Martin", "create Bloqué"}
	for i, c := range want {
		if sheet.calls[i] != c {
			t.Errorf("call %d = %q, want %q", i, sheet.calls[i], c)
		}
	}
	if got, _ := r.Get(0); got.Scores[0] != 15 {
		t.Errorf("imported écriture = %d, want 15", got.Scores[0])
	}
}

func TestExecuteImportStudents_Confirmation(t *testing.T) {
	for _, confirmed := range []int{0, 3, 5} {
		sheet, r := newFixture(t)
		_, err := ExecuteImportStudents(context.Background(), ImportStudentsInput{Rows: importRows(), Confirmed: confirmed},
			ImportStudentsDeps{Store: sheet, Roster: r})
		if !errors.Is(err, ErrNotConfirmed) {
			t.Errorf("confirmed=%d err = %v, want ErrNotConfirmed", confirmed, err)
		}
		if len(sheet.calls) != 0 {
			t.Errorf("confirmed=%d wrote %v", confirmed, sheet.calls)
		}
	}
}

func TestExecuteImportStudents_Cancelled(t *testing.T) {
	sheet, r := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := ExecuteImportStudents(ctx, ImportStudentsInput{Rows: importRows(), Confirmed: 4},
		ImportStudentsDeps{Store: sheet, Roster: r})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if res.Created != 0 || len(sheet.calls) != 0 {
		t.Errorf("created %d rows after cancellation", res.Created)
	}
}
