package main

import (
	"bytes"
	"database/sql"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"gradebook/internal/adapters/sheetserver"
	"gradebook/internal/adapters/storage"
	"gradebook/internal/adapters/storage/sheet"
	"gradebook/internal/application/roster"
	"gradebook/internal/domain/behavior"
)

// newStore starts a sheet store backed by an in-memory database.
func newStore(t *testing.T) string {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db, ":memory:"); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(sheetserver.New(sheet.NewSQLiteStore(db)))
	t.Cleanup(srv.Close)
	return srv.URL
}

// run executes the root command with fresh flag values.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	listQuery, listClass, listSort = "", roster.AllClasses, string(roster.SortNameAsc)
	importYes = false
	reportHTML, reportPDF = "", ""
	submission = behavior.Submission{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eleves.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const roster3 = "nom,prenom,classe,ecriture,lecture\nDupont,Marie,CM1,15,12\nMartin,Léo,CM2,8,9\nPetit,Léa,CM1,18,17\n"

// TestImportListBehavior drives the store through the CLI.
func TestImportListBehavior(t *testing.T) {
	api := newStore(t)
	file := writeCSV(t, roster3)

	out, err := run(t, "2\n", "import", file, "--api", api)
	if err == nil {
		t.Fatalf("wrong confirmation accepted: %s", out)
	}
	out, err = run(t, "", "list", "--api", api)
	if err != nil || !strings.Contains(out, "0 élève(s) sur 0") {
		t.Fatalf("list after refused import: %v %s", err, out)
	}

	out, err = run(t, "3\n", "import", file, "--api", api)
	if err != nil {
		t.Fatalf("import: %v %s", err, out)
	}
	if !strings.Contains(out, "3 élève(s) importé(s) sur 3") {
		t.Errorf("import output = %s", out)
	}

	out, err = run(t, "", "list", "--api", api, "--class", "CM1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Dupont Marie") || strings.Contains(out, "Martin") || !strings.Contains(out, "2 élève(s) sur 3") {
		t.Errorf("list output = %s", out)
	}

	out, err = run(t, "", "behavior", "0", "--api", api, "--bavardage", "--retards", "2")
	if err != nil {
		t.Fatalf("behavior: %v %s", err, out)
	}
	if !strings.Contains(out, "Dupont Marie: 16/20") {
		t.Errorf("behavior output = %s", out)
	}
}

// TestReportHTML writes the report document.
func TestReportHTML(t *testing.T) {
	api := newStore(t)
	if _, err := run(t, "", "import", writeCSV(t, roster3), "--api", api, "--yes"); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(t.TempDir(), "report.html")
	if _, err := run(t, "", "report", "1", "--api", api, "--html", target); err != nil {
		t.Fatalf("report: %v", err)
	}
	b, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "Martin Léo") {
		t.Error("report does not name the student")
	}

	if _, err := run(t, "", "report", "9", "--api", api); err == nil {
		t.Error("expected an error for an unknown index")
	}
	if _, err := run(t, "", "report", "-1", "--api", api); err == nil {
		t.Error("expected an error for a negative index")
	}
}
