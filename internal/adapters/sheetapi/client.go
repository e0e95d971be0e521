// Package sheetapi is the client of the spreadsheet-backed remote store.
// Every call is a single GET carrying an action discriminator.
package sheetapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gradebook/internal/adapters/http/perf"
	"gradebook/internal/domain/student"
)

// Actions understood by the remote store.
const (
	ActionGet    = "get"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// DefaultTimeout bounds a single request when the caller supplies no client.
const DefaultTimeout = 20 * time.Second

// Client talks to the remote store.
type Client struct {
	baseURL   string
	http      *http.Client
	collector *perf.Collector
}

// NewClient creates a Client for baseURL. A nil httpClient gets DefaultTimeout.
// PRE: baseURL is an absolute URL
// POST: Returns a ready-to-use client
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// WithCollector records the duration of every call into c.
func (c *Client) WithCollector(collector *perf.Collector) *Client {
	c.collector = collector
	return c
}

// GetAll fetches every row. Rows keep the store's own key spellings.
// POST: Returns the rows in store order, or a typed error
func (c *Client) GetAll(ctx context.Context) ([]map[string]any, error) {
	raw, err := c.call(ctx, ActionGet, nil)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	// Some deployments wrap the rows: {"ok":true,"data":[...]}.
	var wrapped struct {
		OK    *bool            `json:"ok"`
		Error string           `json:"error"`
		Data  []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, bodyError(ActionGet, ErrMalformed, err.Error())
	}
	if (wrapped.OK != nil && !*wrapped.OK) || (wrapped.Data == nil && wrapped.Error != "") {
		return nil, &RejectedError{Action: ActionGet, Message: wrapped.Error}
	}
	// An object without rows is not an empty sheet.
	if wrapped.Data == nil {
		return nil, bodyError(ActionGet, ErrMalformed, "no data field")
	}
	return wrapped.Data, nil
}

// Create appends a record.
func (c *Client) Create(ctx context.Context, rec student.Record) error {
	return c.write(ctx, ActionCreate, rec.Fields())
}

// Update replaces the record at index.
func (c *Client) Update(ctx context.Context, index int, rec student.Record) error {
	params := rec.Fields()
	params["index"] = strconv.Itoa(index)
	return c.write(ctx, ActionUpdate, params)
}

// Delete removes the record at index.
func (c *Client) Delete(ctx context.Context, index int) error {
	return c.write(ctx, ActionDelete, map[string]string{"index": strconv.Itoa(index)})
}

func (c *Client) write(ctx context.Context, action string, params map[string]string) error {
	raw, err := c.call(ctx, action, params)
	if err != nil {
		return err
	}
	var status struct {
		OK      *bool  `json:"ok"`
		Success *bool  `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		// Arrays and scalars carry no failure flag.
		if raw[0] == '[' {
			return nil
		}
		return bodyError(action, ErrMalformed, err.Error())
	}
	failed := (status.OK != nil && !*status.OK) || (status.Success != nil && !*status.Success)
	if failed {
		msg := status.Error
		if msg == "" {
			msg = status.Message
		}
		return &RejectedError{Action: action, Message: msg}
	}
	return nil
}

// call performs one request and returns the extracted JSON value.
func (c *Client) call(ctx context.Context, action string, params map[string]string) ([]byte, error) {
	start := time.Now()
	defer c.record(action, start)

	q := url.Values{}
	q.Set("action", action)
	for k, v := range params {
		q.Set(k, v)
	}
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sep+q.Encode(), nil)
	if err != nil {
		return nil, &NetworkError{Action: action, Err: err}
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("sheet_api_network_error", "action", action, "error", err)
		return nil, &NetworkError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Action: action, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Action: action, Code: resp.StatusCode, Body: snippet(body, 120)}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "json") {
		slog.Error("sheet_api_non_json", "action", action, "content_type", ct, "body", snippet(body, 200))
		return nil, bodyError(action, ErrNotJSON, ct)
	}
	value, ok := ExtractJSON(body)
	if !ok || !json.Valid(value) {
		slog.Error("sheet_api_malformed", "action", action, "body", snippet(body, 200))
		return nil, bodyError(action, ErrMalformed, "")
	}
	return value, nil
}

func (c *Client) record(action string, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	slog.Debug("sheet_api_call", "action", action, "duration_ms", durationMs)
	if c.collector != nil {
		c.collector.Record(perf.Entry{
			Kind:       perf.KindRemote,
			Path:       fmt.Sprintf("sheetapi.%s", action),
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

func snippet(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n]
	}
	return s
}
