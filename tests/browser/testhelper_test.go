package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"

	"gradebook/internal/adapters/email"
	web "gradebook/internal/adapters/http"
	"gradebook/internal/adapters/http/middleware"
	"gradebook/internal/adapters/http/perf"
	"gradebook/internal/adapters/present"
	"gradebook/internal/adapters/sheetapi"
	"gradebook/internal/adapters/sheetserver"
	"gradebook/internal/adapters/storage"
	"gradebook/internal/adapters/storage/sheet"
	"gradebook/internal/application/roster"
	"gradebook/internal/domain/student"
)

const testPassword = "TestPass123!"

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Client  *sheetapi.Client
	Roster  *roster.Roster
	Sender  *email.NoopSender
}

// appOptions tweaks the wiring of a test app.
type appOptions struct {
	login bool
}

// newTestApp creates a fully wired app: a temp SQLite sheet store behind the
// store service, the web server on a free port and a headless Chromium.
func newTestApp(t *testing.T, opts appOptions, records ...student.Record) *testApp {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "sheet.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.InitDB(db, dbPath); err != nil {
		t.Fatalf("failed to init test DB: %v", err)
	}
	sheetSrv := httptest.NewServer(sheetserver.New(sheet.NewSQLiteStore(db)))

	collector := perf.NewCollector(perf.DefaultRingSize)
	client := sheetapi.NewClient(sheetSrv.URL, &http.Client{Timeout: 5 * time.Second}).WithCollector(collector)

	ctx := context.Background()
	for _, rec := range records {
		if err := client.Create(ctx, rec); err != nil {
			t.Fatalf("failed to seed %s: %v", rec.FullName(), err)
		}
	}
	students := roster.New(client)
	if err := students.Load(ctx); err != nil {
		t.Fatalf("failed to load roster: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Add test port to CSRF trusted origins before creating mux
	middleware.ExtraTrustedOrigins = append(middleware.ExtraTrustedOrigins,
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("localhost:%d", port),
	)
	web.RateLimitPerSecond = 1000

	sender := email.NewNoopSender()
	deps := &web.Deps{
		Store:     client,
		Roster:    students,
		Documents: present.NewRegistry(present.BlobTTL),
		Sender:    sender,
		EmailFrom: "ecole@test.fr",
		ReportTo:  "parents@test.fr",
	}
	if opts.login {
		hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		deps.PasswordHash = hash
	}

	serverCtx, cancel := context.WithCancel(ctx)
	key := []byte("0123456789abcdef0123456789abcdef")
	mux := web.NewMux(serverCtx, deps, collector, web.Options{CSRFKey: key})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/static/screen.css")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Client:  client,
		Roster:  students,
		Sender:  sender,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		cancel()
		sheetSrv.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// open navigates page to path and fails the test on error.
func (a *testApp) open(t *testing.T, page playwright.Page, path string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + path); err != nil {
		t.Fatalf("navigate %s: %v", path, err)
	}
}

// login submits the password form and waits for the screen.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	a.open(t, page, "/login")
	if err := page.Locator("input[name=password]").Fill(testPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to the screen: %v", err)
	}
}

// stored reads the sheet back through the store service.
func (a *testApp) stored(t *testing.T) []student.Record {
	t.Helper()
	r := roster.New(a.Client)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("reload roster: %v", err)
	}
	return r.All()
}

// waitText polls loc until its text contains want.
func waitText(t *testing.T, loc playwright.Locator, want string) {
	t.Helper()
	var got string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, _ = loc.TextContent()
		if strings.Contains(got, want) {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("text %q never appeared, last saw %q", want, got)
}

func rec(last, first, class string, scores ...int) student.Record {
	r := student.Record{LastName: last, FirstName: first, Gender: "F", ClassName: class, Date: "12/03/2025"}
	copy(r.Scores[:], scores)
	return r
}
