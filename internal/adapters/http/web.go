package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"gradebook/internal/adapters/email"
	"gradebook/internal/adapters/http/middleware"
	"gradebook/internal/adapters/http/perf"
	"gradebook/internal/adapters/present"
	"gradebook/internal/application/orchestrators"
	"gradebook/internal/application/roster"
)

//go:embed templates static
var assets embed.FS

// Deps holds everything the handlers reach.
type Deps struct {
	Store  orchestrators.StudentStore
	Roster *roster.Roster
	// Presenter prints documents in a headless browser. Nil when
	// GRADEBOOK_BROWSER=off; documents are then opened by the user's browser.
	Presenter orchestrators.DocumentPresenter
	Documents *present.Registry
	Sender    email.Sender
	EmailFrom string
	// ReportTo pre-fills the recipient of emailed reports.
	ReportTo string
	// PasswordHash enables the login gate when non-empty.
	PasswordHash []byte
}

// Options configures the middleware chain.
type Options struct {
	CSRFKey []byte
	Secure  bool
	// SlowRequest overrides middleware.SlowRequest when positive.
	SlowRequest time.Duration
}

// Global dependencies (set by NewMux)
var deps *Deps

// Global session store instance
var sessions *middleware.SessionStore

// Class selector cache shared by the screen and the JSON list
var view *roster.View

// Pending two-step imports
var imports *importStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires HTTP handlers for the app. Background sweepers stop when ctx is done.
func NewMux(ctx context.Context, d *Deps, collector *perf.Collector, opts Options) http.Handler {
	deps = d
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	view = roster.NewView()
	imports = newImportStore(ImportTTL)
	middleware.SecureCookies = opts.Secure
	if opts.SlowRequest > 0 {
		middleware.SlowRequest = opts.SlowRequest
	}
	if deps.Documents == nil {
		deps.Documents = present.NewRegistry(present.BlobTTL)
	}

	static, _ := fs.Sub(assets, "static")
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(ctx, RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> Auth -> RequireTeacher -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.RateLimit(limiter),
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.Secure),
		middleware.RequireTeacher(len(deps.PasswordHash) > 0),
		middleware.Auth(sessions),
		middleware.Timing(collector),
	)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/{$}", handleScreen)
	mux.HandleFunc("/students", handleAddStudent)
	mux.HandleFunc("/students/{index}/delete", handleDeleteStudent)
	mux.HandleFunc("/students/{index}/report", handleReport)
	mux.HandleFunc("/students/{index}/report/email", handleEmailReport)
	mux.HandleFunc("/students/{index}/edit", handleEdit)
	mux.HandleFunc("/students/{index}/behavior", handleBehavior)
	mux.HandleFunc("/students/{index}/present", handlePresent)
	mux.HandleFunc("/import", handleImport)
	mux.HandleFunc("/export.xlsx", handleExport)

	mux.HandleFunc("/api/students", handleAPIStudents)
	mux.HandleFunc("/api/students/{index}", handleAPIStudent)
	mux.HandleFunc("/api/students/{index}/behavior", handleAPIBehavior)
	mux.HandleFunc("/api/refresh", handleAPIRefresh)

	mux.Handle("/documents/", deps.Documents)
	mux.HandleFunc("/admin/perf", handleAdminPerf)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
}
