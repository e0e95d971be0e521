// Package present opens built documents in independent browsing contexts.
//
// A Presenter runs an ordered ladder of write strategies against a fresh
// context, checking after each one that the document actually landed. The
// first strategy that passes its check wins; when none does, the caller gets
// a PresentationError naming every attempt.
package present

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gradebook/internal/adapters/http/perf"
)

// ErrPopupBlocked is returned when no browsing context could be opened.
var ErrPopupBlocked = errors.New("impossible d'ouvrir une nouvelle fenêtre")

// Surface opens browsing contexts.
type Surface interface {
	Open(ctx context.Context) (Context, error)
}

// Context is one browsing context.
type Context interface {
	SetContent(ctx context.Context, html string) error
	WaitLoaded(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	Content(ctx context.Context) (string, error)
	URL() string
	PDF(ctx context.Context) ([]byte, error)
	OnClose(fn func())
	Close() error
}

// Strategy names, in ladder order.
const (
	StrategyDirect    = "direct-write"
	StrategyAfterLoad = "write-after-load"
	StrategyDataURI   = "data-uri"
	StrategyBlob      = "blob-url"
)

// Attempt is one failed strategy.
type Attempt struct {
	Strategy string
	Err      error
}

// PresentationError reports that every strategy failed.
type PresentationError struct {
	Attempts []Attempt
}

// Error implements the error interface.
func (e *PresentationError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Strategy, a.Err)
	}
	return "présentation impossible (" + strings.Join(parts, "; ") + ")"
}

// Strategies returns the names of the attempted strategies in order.
func (e *PresentationError) Strategies() []string {
	out := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = a.Strategy
	}
	return out
}

var errNotWritten = errors.New("document absent after write")

type strategy struct {
	name string
	run  func(ctx context.Context, c Context, html string) error
}

var ladder = []strategy{
	{StrategyDirect, func(ctx context.Context, c Context, html string) error {
		return c.SetContent(ctx, html)
	}},
	{StrategyAfterLoad, func(ctx context.Context, c Context, html string) error {
		if err := c.WaitLoaded(ctx); err != nil {
			return err
		}
		return c.SetContent(ctx, html)
	}},
	{StrategyDataURI, func(ctx context.Context, c Context, html string) error {
		return c.Navigate(ctx, DataURI(html))
	}},
}

// Presenter presents documents through a Surface.
type Presenter struct {
	surface   Surface
	blobs     *Registry
	baseURL   string
	collector *perf.Collector
}

// New creates a Presenter. blobs and baseURL serve PresentBlob; baseURL is
// the origin the surface can reach the blob registry at.
func New(surface Surface, blobs *Registry, baseURL string) *Presenter {
	return &Presenter{surface: surface, blobs: blobs, baseURL: strings.TrimRight(baseURL, "/")}
}

// WithCollector records the duration of every presentation into c.
func (p *Presenter) WithCollector(c *perf.Collector) *Presenter {
	p.collector = c
	return p
}

// Present opens a new context and writes html into it.
// POST: on success the Handle owns the context; on failure no context is left open
func (p *Presenter) Present(ctx context.Context, html []byte) (*Handle, error) {
	start := time.Now()
	c, err := p.open(ctx)
	if err != nil {
		return nil, err
	}

	doc := string(html)
	var attempts []Attempt
	for _, s := range ladder {
		err := s.run(ctx, c, doc)
		if err == nil {
			err = verify(ctx, c, doc)
		}
		if err == nil {
			p.record(s.name, start)
			slog.Info("document_presented", "strategy", s.name, "failed_attempts", len(attempts))
			return newHandle(c, s.name, nil), nil
		}
		slog.Debug("present_strategy_failed", "strategy", s.name, "error", err)
		attempts = append(attempts, Attempt{Strategy: s.name, Err: err})
	}
	_ = c.Close()
	p.record("failed", start)
	perr := &PresentationError{Attempts: attempts}
	slog.Warn("document_present_failed", "error", perr)
	return nil, perr
}

// PresentBlob serves html from the blob registry and navigates a new context
// to its temporary URL. The blob is released when the context closes or the
// registry TTL expires, whichever comes first.
func (p *Presenter) PresentBlob(ctx context.Context, html []byte) (*Handle, error) {
	if p.blobs == nil || p.baseURL == "" {
		return nil, &PresentationError{Attempts: []Attempt{{Strategy: StrategyBlob, Err: errors.New("no blob registry configured")}}}
	}
	start := time.Now()
	c, err := p.open(ctx)
	if err != nil {
		return nil, err
	}

	id := p.blobs.Put(html)
	release := func() { p.blobs.Release(id) }
	c.OnClose(release)

	err = c.Navigate(ctx, p.baseURL+DocumentPath(id))
	if err == nil {
		err = verify(ctx, c, string(html))
	}
	if err != nil {
		release()
		_ = c.Close()
		p.record("failed", start)
		return nil, &PresentationError{Attempts: []Attempt{{Strategy: StrategyBlob, Err: err}}}
	}
	p.record(StrategyBlob, start)
	slog.Info("document_presented", "strategy", StrategyBlob, "blob", id)
	return newHandle(c, StrategyBlob, release), nil
}

func (p *Presenter) open(ctx context.Context) (Context, error) {
	c, err := p.surface.Open(ctx)
	if err != nil {
		slog.Warn("present_open_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPopupBlocked, err)
	}
	return c, nil
}

func (p *Presenter) record(strategy string, start time.Time) {
	if p.collector == nil {
		return
	}
	p.collector.Record(perf.Entry{
		Kind:       perf.KindPresent,
		Path:       "present." + strategy,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:  start,
	})
}

// ConfigMarker identifies gradebook documents in a serialized DOM.
const ConfigMarker = `id="doc-config"`

// verify checks that the context now shows the document. Gradebook
// documents carry a config island; other markup only needs a non-empty body.
func verify(ctx context.Context, c Context, html string) error {
	got, err := c.Content(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(html, ConfigMarker) {
		if !strings.Contains(got, ConfigMarker) {
			return errNotWritten
		}
		return nil
	}
	if strings.TrimSpace(stripTags(got)) == "" {
		return errNotWritten
	}
	return nil
}

func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DataURI encodes html as a percent-encoded data: URL.
func DataURI(html string) string {
	return "data:text/html;charset=utf-8," + url.PathEscape(html)
}

// DocumentPath is the server path a blob is served at.
func DocumentPath(id string) string {
	return "/documents/" + id
}
