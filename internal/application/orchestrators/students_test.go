package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"gradebook/internal/adapters/sheetapi"
	"gradebook/internal/application/roster"
	"gradebook/internal/domain/behavior"
	"gradebook/internal/domain/student"
)

// fakeSheet behaves like the remote spreadsheet: rows are positional and a
// delete shifts later rows up.
type fakeSheet struct {
	rows     []map[string]string
	failName string // Create/Update fail for this last name
	failErr  error
	getErr   error
	calls    []string
}

func (f *fakeSheet) GetAll(context.Context) ([]map[string]any, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]map[string]any, len(f.rows))
	for i, r := range f.rows {
		m := map[string]any{"index": float64(i)}
		for k, v := range r {
			m[k] = v
		}
		out[i] = m
	}
	return out, nil
}

func (f *fakeSheet) fail(rec student.Record) error {
	if f.failName != "" && rec.LastName == f.failName {
		if f.failErr != nil {
			return f.failErr
		}
		return &sheetapi.RejectedError{Action: "create", Message: "row locked"}
	}
	return nil
}

func (f *fakeSheet) Create(_ context.Context, rec student.Record) error {
	f.calls = append(f.calls, "create "+rec.LastName)
	if err := f.fail(rec); err != nil {
		return err
	}
	f.rows = append(f.rows, rec.Fields())
	return nil
}

func (f *fakeSheet) Update(_ context.Context, index int, rec student.Record) error {
	f.calls = append(f.calls, "update "+strconv.Itoa(index))
	if err := f.fail(rec); err != nil {
		return err
	}
	f.rows[index] = rec.Fields()
	return nil
}

func (f *fakeSheet) Delete(_ context.Context, index int) error {
	f.calls = append(f.calls, "delete "+strconv.Itoa(index))
	f.rows = append(f.rows[:index], f.rows[index+1:]...)
	return nil
}

func newFixture(t *testing.T, names ...string) (*fakeSheet, *roster.Roster) {
	t.Helper()
	sheet := &fakeSheet{}
	for _, n := range names {
		sheet.rows = append(sheet.rows, student.Record{LastName: n, FirstName: "P", ClassName: "CM1", Date: "01/09/2025"}.Fields())
	}
	r := roster.New(sheet)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return sheet, r
}

func TestExecuteAddStudent(t *testing.T) {
	sheet, r := newFixture(t, "Dupont")
	res, err := ExecuteAddStudent(context.Background(), AddStudentInput{
		Record: student.Record{LastName: "Martin", FirstName: "Léa", Gender: "F", Scores: student.Scores{12, 12, 12, 12, 12, 12}},
	}, AddStudentDeps{Store: sheet, Roster: r})
	if err != nil {
		t.Fatalf("ExecuteAddStudent() error: %v", err)
	}
	if !res.Reloaded || r.Len() != 2 {
		t.Errorf("reloaded=%v len=%d, want true/2", res.Reloaded, r.Len())
	}
	if res.Record.Date == "" {
		t.Error("date not defaulted")
	}
}

func TestExecuteAddStudent_Validation(t *testing.T) {
	sheet, r := newFixture(t)
	_, err := ExecuteAddStudent(context.Background(), AddStudentInput{Record: student.Record{FirstName: "Léa"}},
		AddStudentDeps{Store: sheet, Roster: r})

	var verr *student.ValidationError
	if !errors.As(err, &verr) || verr.Fields[0] != "nom" {
		t.Fatalf("err = %v, want validation error on nom", err)
	}
	if len(sheet.calls) != 0 {
		t.Errorf("store called on invalid input: %v", sheet.calls)
	}
}

func TestExecuteAddStudent_WriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unverified bool
	}{
		{"rejected", &sheetapi.RejectedError{Action: "create", Message: "quota"}, false},
		{"malformed", fmt.Errorf("create: %w", sheetapi.ErrMalformed), true},
		{"not json", fmt.Errorf("create: %w", sheetapi.ErrNotJSON), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, r := newFixture(t)
			sheet.failName, sheet.failErr = "Martin", tt.err
			_, err := ExecuteAddStudent(context.Background(), AddStudentInput{
				Record: student.Record{LastName: "Martin", FirstName: "Léa"},
			}, AddStudentDeps{Store: sheet, Roster: r})

			var werr *WriteError
			if !errors.As(err, &werr) {
				t.Fatalf("err = %v, want *WriteError", err)
			}
			if werr.Action != ActionAdd || werr.Unverified() != tt.unverified {
				t.Errorf("action=%q unverified=%v", werr.Action, werr.Unverified())
			}
		})
	}
}

func TestExecuteUpdateStudent(t *testing.T) {
	sheet, r := newFixture(t, "Dupont", "Martin")
	rec, _ := r.Get(1)
	rec.Scores[0] = 19
	rec.Index = 99

	res, err := ExecuteUpdateStudent(context.Background(), UpdateStudentInput{Index: 1, Record: rec},
		UpdateStudentDeps{Store: sheet, Roster: r})
	if err != nil {
		t.Fatalf("ExecuteUpdateStudent() error: %v", err)
	}
	if res.Record.Index != 1 {
		t.Errorf("Index = %d, want 1", res.Record.Index)
	}
	got, _ := r.Get(1)
	if got.Scores[0] != 19 {
		t.Errorf("reloaded score = %d, want 19", got.Scores[0])
	}
	if got.Date != student.Today() || sheet.rows[1]["date"] != student.Today() {
		t.Errorf("date = %q stored %q, want today %q", got.Date, sheet.rows[1]["date"], student.Today())
	}

	_, err = ExecuteUpdateStudent(context.Background(), UpdateStudentInput{Index: 7, Record: rec},
		UpdateStudentDeps{Store: sheet, Roster: r})
	if !errors.Is(err, student.ErrNotFound) {
		t.Errorf("unknown index err = %v, want ErrNotFound", err)
	}
}

func TestExecuteDeleteStudent(t *testing.T) {
	sheet, r := newFixture(t, "Dupont", "Martin", "Bernard")
	deps := DeleteStudentDeps{Store: sheet, Roster: r}

	_, err := ExecuteDeleteStudent(context.Background(), DeleteStudentInput{Index: 1}, deps)
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("unconfirmed err = %v, want ErrNotConfirmed", err)
	}
	if len(sheet.calls) != 0 {
		t.Fatalf("store called without confirmation: %v", sheet.calls)
	}

	res, err := ExecuteDeleteStudent(context.Background(), DeleteStudentInput{Index: 1, Confirmed: true}, deps)
	if err != nil {
		t.Fatalf("ExecuteDeleteStudent() error: %v", err)
	}
	if res.Record.LastName != "Martin" {
		t.Errorf("deleted %q, want Martin", res.Record.LastName)
	}
	if r.Len() != 2 {
		t.Errorf("len = %d, want 2", r.Len())
	}
	if got, _ := r.Get(1); got.LastName != "Bernard" {
		t.Errorf("index 1 after delete = %q, want Bernard", got.LastName)
	}
}

func TestExecuteEvaluateBehavior(t *testing.T) {
	sheet, r := newFixture(t, "Dupont")
	c := behavior.Checklist{Chatter: true, Tardies: 2, Participation: true, Comment: "Progrès"}

	res, err := ExecuteEvaluateBehavior(context.Background(), EvaluateBehaviorInput{Index: 0, Checklist: c},
		EvaluateBehaviorDeps{Store: sheet, Roster: r})
	if err != nil {
		t.Fatalf("ExecuteEvaluateBehavior() error: %v", err)
	}
	if res.Record.Behavior.Score.Value() != 18 {
		t.Errorf("score = %d, want 18", res.Record.Behavior.Score.Value())
	}
	got, _ := r.Get(0)
	if got.Behavior.Details != "Bavardage, Retards x2, Participation active (+)" || got.Behavior.Comment != "Progrès" {
		t.Errorf("stored behavior = %+v", got.Behavior)
	}
	if got.LastName != "Dupont" {
		t.Errorf("other fields changed: %+v", got)
	}
	if got.Date != student.Today() {
		t.Errorf("date = %q, want today %q", got.Date, student.Today())
	}
}

func TestExecuteEvaluateBehavior_EmptyLeavesUnset(t *testing.T) {
	sheet, r := newFixture(t, "Dupont")
	_, err := ExecuteEvaluateBehavior(context.Background(), EvaluateBehaviorInput{Index: 0},
		EvaluateBehaviorDeps{Store: sheet, Roster: r})
	if err != nil {
		t.Fatal(err)
	}
	if sheet.rows[0]["comportement"] != "" {
		t.Errorf("comportement = %q, want empty for an unset score", sheet.rows[0]["comportement"])
	}
	if sheet.rows[0]["date"] != student.Today() {
		t.Errorf("date = %q, want today after clearing the evaluation", sheet.rows[0]["date"])
	}
}

func TestReload_FailureKeepsWrite(t *testing.T) {
	sheet, r := newFixture(t, "Dupont")
	sheet.getErr = errors.New("timeout")
	res, err := ExecuteAddStudent(context.Background(), AddStudentInput{
		Record: student.Record{LastName: "Martin", FirstName: "Léa"},
	}, AddStudentDeps{Store: sheet, Roster: r})
	if err != nil {
		t.Fatalf("ExecuteAddStudent() error: %v", err)
	}
	if res.Reloaded {
		t.Error("Reloaded = true after a failed reload")
	}
	if len(sheet.rows) != 2 || r.Len() != 1 {
		t.Errorf("rows=%d roster=%d, want 2/1", len(sheet.rows), r.Len())
	}
}
