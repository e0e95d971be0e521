// Command sheetstore serves the spreadsheet action API (get, create,
// update, delete) over a SQLite table, for running the gradebook without a
// hosted spreadsheet.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"gradebook/internal/adapters/http/perf"
	"gradebook/internal/adapters/sheetserver"
	"gradebook/internal/adapters/storage"
	"gradebook/internal/adapters/storage/sheet"
	"gradebook/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	dsn := cfg.SheetDB + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db, cfg.SheetDB); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	store := sheet.NewSQLiteStore(storage.NewTimedDB(db, collector, cfg.SlowQuery))
	handler := sheetserver.New(store).WithXSSIPrefix(cfg.SheetXSSI)

	mux := http.NewServeMux()
	mux.Handle("/exec", handler)
	mux.Handle("/{$}", handler)
	mux.HandleFunc("GET /perf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(collector.Snapshot(time.Now().Add(-time.Hour), 10))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := &http.Server{Addr: cfg.SheetAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Sheet store on %s (db=%s, schema=%d)", cfg.SheetAddr, cfg.SheetDB, storage.LatestSchemaVersion())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
