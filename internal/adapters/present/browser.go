package present

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// DefaultActionTimeout bounds a browser call when ctx carries no deadline.
const DefaultActionTimeout = 15 * time.Second

// Browser is a Surface backed by a headless Chromium.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// Launch starts Playwright and a headless Chromium.
// PRE: the Playwright driver and browsers are installed
// POST: the caller must Close the Browser
func Launch() (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	slog.Info("browser_launched", "version", browser.Version())
	return &Browser{pw: pw, browser: browser}, nil
}

// Open opens a blank page.
func (b *Browser) Open(ctx context.Context) (Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := b.browser.NewPage()
	if err != nil {
		return nil, err
	}
	return &page{p: p}, nil
}

// Close shuts down the browser and the driver.
func (b *Browser) Close() error {
	if err := b.browser.Close(); err != nil {
		_ = b.pw.Stop()
		return err
	}
	return b.pw.Stop()
}

type page struct {
	p playwright.Page
}

// timeout converts the ctx deadline into a Playwright timeout in milliseconds.
func timeout(ctx context.Context) *float64 {
	d := DefaultActionTimeout
	if deadline, ok := ctx.Deadline(); ok {
		d = time.Until(deadline)
		if d <= 0 {
			d = time.Millisecond
		}
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func (pg *page) SetContent(ctx context.Context, html string) error {
	return pg.p.SetContent(html, playwright.PageSetContentOptions{Timeout: timeout(ctx)})
}

func (pg *page) WaitLoaded(ctx context.Context) error {
	return pg.p.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: timeout(ctx),
	})
}

func (pg *page) Navigate(ctx context.Context, url string) error {
	_, err := pg.p.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeout(ctx),
	})
	return err
}

func (pg *page) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return pg.p.Content()
}

func (pg *page) URL() string { return pg.p.URL() }

func (pg *page) PDF(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pg.p.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
	})
}

func (pg *page) OnClose(fn func()) {
	pg.p.OnClose(func(playwright.Page) { fn() })
}

func (pg *page) Close() error {
	return pg.p.Close()
}
