package browser_test

import (
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"gradebook/internal/domain/student"
)

// waitStored polls the sheet until check accepts the record at index.
func waitStored(t *testing.T, app *testApp, index int, check func(student.Record) bool) student.Record {
	t.Helper()
	var last student.Record
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		records := app.stored(t)
		if index < len(records) {
			last = records[index]
			if check(last) {
				return last
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("record %d never reached the expected state, last %+v", index, last)
	return last
}

// TestEditDocument_PopupSave opens the edit document from the list, saves a
// new score and expects the popup to close itself.
func TestEditDocument_PopupSave(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t, appOptions{}, rec("Dupont", "Marie", "CM1", 15, 12, 18, 9, 14, 16))
	page := app.newPage(t)
	app.open(t, page, "/")

	popup, err := page.ExpectPopup(func() error {
		return page.Locator("form[action='/students/0/present?kind=edit'] button").Click()
	})
	if err != nil {
		t.Fatalf("edit popup: %v", err)
	}
	if err := popup.WaitForLoadState(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(popup.URL(), "/documents/") {
		t.Errorf("popup URL = %q, want a temporary document URL", popup.URL())
	}

	if err := popup.Locator("[data-field=grammaire]").Fill("15"); err != nil {
		t.Fatalf("fill grammaire: %v", err)
	}
	if err := popup.Locator("[data-field=comportement]").Fill("17"); err != nil {
		t.Fatalf("fill comportement: %v", err)
	}
	if err := popup.Locator("[data-action=save-record]").Click(); err != nil {
		t.Fatalf("click save: %v", err)
	}

	saved := waitStored(t, app, 0, func(r student.Record) bool { return r.Scores[3] == 15 })
	if saved.Behavior.Score.Value() != 17 {
		t.Errorf("behavior = %d, want 17", saved.Behavior.Score.Value())
	}

	deadline := time.Now().Add(5 * time.Second)
	for !popup.IsClosed() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if !popup.IsClosed() {
		t.Error("edit popup still open after saving")
	}
}

// TestBehaviorDocument_LiveScore checks the live score and the saved checklist.
func TestBehaviorDocument_LiveScore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t, appOptions{}, rec("Dupont", "Marie", "CM1", 15))
	page := app.newPage(t)
	app.open(t, page, "/students/0/behavior")

	score := page.Locator("strong[data-score]")
	waitText(t, score, "20")

	if err := page.Locator("[data-rule=bavardage]").Check(); err != nil {
		t.Fatalf("check bavardage: %v", err)
	}
	waitText(t, score, "18")
	if err := page.Locator("[data-rule=retards]").Fill("2"); err != nil {
		t.Fatalf("fill retards: %v", err)
	}
	waitText(t, score, "16")
	if err := page.Locator("[data-comment]").Fill("Doit se concentrer."); err != nil {
		t.Fatal(err)
	}

	if err := page.Locator("[data-action=save-behavior]").Click(); err != nil {
		t.Fatalf("click save: %v", err)
	}
	waitText(t, page.Locator("[data-status]"), "Enregistré.")

	saved := waitStored(t, app, 0, func(r student.Record) bool { return r.Behavior.Score.IsSet() })
	if saved.Behavior.Score.Value() != 16 {
		t.Errorf("behavior = %d, want 16", saved.Behavior.Score.Value())
	}
	if !strings.Contains(saved.Behavior.Details, "Bavardage") || !strings.Contains(saved.Behavior.Details, "Retards x2") {
		t.Errorf("details = %q", saved.Behavior.Details)
	}
	if saved.Behavior.Comment != "Doit se concentrer." {
		t.Errorf("comment = %q", saved.Behavior.Comment)
	}
}

// TestReportDocument renders both charts inline.
func TestReportDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t, appOptions{},
		rec("Dupont", "Marie", "CM1", 15, 12, 18, 9, 14, 16),
		rec("Petit", "Léa", "CM1", 10, 10, 10, 10, 10, 10),
	)
	page := app.newPage(t)
	app.open(t, page, "/students/0/report")

	waitText(t, page.Locator("h1"), "Dupont Marie")
	charts := page.Locator("img[src^='data:image/png;base64,']")
	if err := charts.First().WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("chart not visible: %v", err)
	}
	if n, _ := charts.Count(); n != 2 {
		t.Errorf("found %d inline charts, want 2", n)
	}
	body, err := page.Locator("body").InnerText()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Moyenne de la classe CM1") {
		t.Error("report lacks the class comparison")
	}
}
