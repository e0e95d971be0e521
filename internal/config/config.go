// Package config reads the environment of the gradebook binaries.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultAddr       = ":8080"
	DefaultSheetAddr  = ":8081"
	DefaultSheetDB    = "sheet.db"
	DefaultAPITimeout = 20 * time.Second
	DefaultFrom       = "Carnet de notes <bulletins@example.org>"
)

// Config holds every setting read from the environment.
type Config struct {
	Env        string
	Addr       string
	APIURL     string
	APITimeout time.Duration
	CSRFKey    []byte
	// Browser enables the headless presenter. GRADEBOOK_BROWSER=off disables it.
	Browser bool
	// PasswordHash is a bcrypt hash; empty leaves the screen open.
	PasswordHash []byte
	ResendKey    string
	ResendFrom   string
	ReportTo     string
	LogLevel     slog.Level
	// SlowRequest is the web server's slow request threshold (GRADEBOOK_SLOW_REQUEST_MS).
	SlowRequest time.Duration

	SheetDB   string
	SheetAddr string
	SheetXSSI string
	// SlowQuery is the sheet store's slow statement threshold (GRADEBOOK_SLOW_QUERY_MS).
	SlowQuery time.Duration
}

// Production reports whether GRADEBOOK_ENV is "production".
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env when present, then the environment.
// POST: Returns an error naming the first invalid or missing key
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	c := Config{
		Env:          envOrDefault("GRADEBOOK_ENV", "development"),
		Addr:         envOrDefault("GRADEBOOK_ADDR", DefaultAddr),
		APIURL:       os.Getenv("GRADEBOOK_API_URL"),
		Browser:      !strings.EqualFold(os.Getenv("GRADEBOOK_BROWSER"), "off"),
		PasswordHash: []byte(os.Getenv("GRADEBOOK_PASSWORD_HASH")),
		ResendKey:    os.Getenv("GRADEBOOK_RESEND_KEY"),
		ResendFrom:   envOrDefault("GRADEBOOK_RESEND_FROM", DefaultFrom),
		ReportTo:     os.Getenv("GRADEBOOK_REPORT_TO"),
		SheetDB:      envOrDefault("GRADEBOOK_SHEET_DB", DefaultSheetDB),
		SheetAddr:    envOrDefault("GRADEBOOK_SHEET_ADDR", DefaultSheetAddr),
		SheetXSSI:    os.Getenv("GRADEBOOK_SHEET_XSSI"),
	}

	timeout, err := durationSeconds("GRADEBOOK_API_TIMEOUT", DefaultAPITimeout)
	if err != nil {
		return Config{}, err
	}
	c.APITimeout = timeout

	if c.SlowQuery, err = durationMillis("GRADEBOOK_SLOW_QUERY_MS"); err != nil {
		return Config{}, err
	}
	if c.SlowRequest, err = durationMillis("GRADEBOOK_SLOW_REQUEST_MS"); err != nil {
		return Config{}, err
	}

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("GRADEBOOK_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("GRADEBOOK_LOG_LEVEL: %w", err)
	}

	c.CSRFKey, err = csrfKey(c.Production())
	if err != nil {
		return Config{}, err
	}
	return c, nil
}

// RequireAPIURL fails when GRADEBOOK_API_URL is unset.
func (c Config) RequireAPIURL() error {
	if c.APIURL == "" {
		return errors.New("GRADEBOOK_API_URL is required (URL of the spreadsheet store)")
	}
	return nil
}

// NewLogger returns the process logger: JSON in production, text otherwise.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.Production() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// csrfKey reads GRADEBOOK_CSRF_KEY (hex-encoded, 32 bytes). Outside
// production a random key is generated per startup.
func csrfKey(production bool) ([]byte, error) {
	if keyHex := os.Getenv("GRADEBOOK_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("GRADEBOOK_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("GRADEBOOK_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "forms won't survive a restart; set GRADEBOOK_CSRF_KEY")
	return key, nil
}

func durationSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of seconds", key)
	}
	return time.Duration(n) * time.Second, nil
}

// durationMillis reads a positive millisecond count; unset gives zero.
func durationMillis(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of milliseconds", key)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
