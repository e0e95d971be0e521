package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	emailPkg "gradebook/internal/adapters/email"
	web "gradebook/internal/adapters/http"
	"gradebook/internal/adapters/http/perf"
	"gradebook/internal/adapters/present"
	"gradebook/internal/adapters/sheetapi"
	"gradebook/internal/application/roster"
	"gradebook/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := cfg.RequireAPIURL(); err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := perf.NewCollector(perf.DefaultRingSize)
	client := sheetapi.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.APITimeout}).WithCollector(collector)
	students := roster.New(client)

	deps := &web.Deps{
		Store:        client,
		Roster:       students,
		Documents:    present.NewRegistry(present.BlobTTL),
		ReportTo:     cfg.ReportTo,
		EmailFrom:    cfg.ResendFrom,
		PasswordHash: cfg.PasswordHash,
	}

	if cfg.Browser {
		browser, err := present.Launch()
		if err != nil {
			log.Printf("Headless browser unavailable, documents open in the user's browser: %v", err)
		} else {
			defer browser.Close()
			deps.Presenter = present.New(browser, deps.Documents, localURL(cfg.Addr)).WithCollector(collector)
			log.Println("Headless browser ready (PDF reports enabled)")
		}
	}

	switch {
	case cfg.ResendKey != "":
		deps.Sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		log.Println("Email sender configured (Resend)")
	case cfg.Production():
		log.Println("WARNING: GRADEBOOK_RESEND_KEY is not set, emailing reports is DISABLED")
	default:
		deps.Sender = emailPkg.NewNoopSender()
		log.Println("Email sender configured (noop, set GRADEBOOK_RESEND_KEY for real delivery)")
	}

	if err := students.Load(ctx); err != nil {
		log.Printf("Initial load failed, the screen will retry: %v", err)
	}

	mux := web.NewMux(ctx, deps, collector, web.Options{
		CSRFKey:     cfg.CSRFKey,
		Secure:      cfg.Production(),
		SlowRequest: cfg.SlowRequest,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Gradebook %s starting on %s (env=%s, store=%s)", version, cfg.Addr, cfg.Env, cfg.APIURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

// localURL is the origin the headless browser reaches this server at.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}
