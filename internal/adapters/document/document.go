// Package document builds the self-contained report, edit and behavior
// documents. Each document carries its own styles, chart images and the
// shared controller script, so it renders identically from a temporary URL,
// a data: URI or a direct write.
package document

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"gradebook/internal/adapters/chart"
	"gradebook/internal/application/projections"
	"gradebook/internal/domain/behavior"
	"gradebook/internal/domain/scoring"
	"gradebook/internal/domain/student"
)

// Kind names a document type.
type Kind string

// Document kinds.
const (
	KindReport   Kind = "report"
	KindEdit     Kind = "edit"
	KindBehavior Kind = "behavior"
)

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindReport, KindEdit, KindBehavior:
		return k, nil
	}
	return "", fmt.Errorf("document: unknown kind %q", s)
}

// Timings used by the controller script.
const (
	AutoCloseFallback = 1200 * time.Millisecond
	SaveCloseDelay    = 900 * time.Millisecond
)

//go:embed assets
var assets embed.FS

// mdRenderer is configured for safe HTML output: raw HTML in notes is
// omitted since WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var funcs = template.FuncMap{
	"score": formatAverage,
}

var (
	templates = template.Must(template.New("").Funcs(funcs).ParseFS(assets, "assets/*.html"))
	script    = template.JS(mustAsset("assets/controller.js"))
	styles    = template.CSS(mustAsset("assets/base.css"))
)

func mustAsset(name string) string {
	b, err := assets.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// config is serialized into the doc-config JSON island.
type config struct {
	Kind            Kind           `json:"kind"`
	Index           int            `json:"index"`
	AutoPrint       bool           `json:"autoPrint,omitempty"`
	AutoClose       bool           `json:"autoClose,omitempty"`
	CloseFallbackMs int64          `json:"closeFallbackMs,omitempty"`
	SaveURL         string         `json:"saveUrl,omitempty"`
	SaveMethod      string         `json:"saveMethod,omitempty"`
	CloseDelayMs    int64          `json:"closeDelayMs,omitempty"`
	Base            int            `json:"base,omitempty"`
	Rules           map[string]int `json:"rules,omitempty"`
}

type page struct {
	Title  string
	Record student.Record
	Config config
	Script template.JS
	CSS    template.CSS
}

// ReportOptions controls the print behavior of a report.
type ReportOptions struct {
	AutoPrint bool
	// AutoClose closes the document after printing. Only meaningful with AutoPrint.
	AutoClose bool
}

type reportPage struct {
	page
	Analysis   scoring.Analysis
	Narrative  scoring.Narrative
	Rows       []projections.SkillRow
	Comparison *projections.Comparison
	Behavior   *behavior.Checklist
	BarChart   template.URL
	RadarChart template.URL
	Notes      template.HTML
}

// Report renders the report document of res.
// PRE: res comes from projections.QueryGetReport
// POST: Returns a complete HTML document with both charts embedded as data URIs
func Report(res projections.GetReportResult, opts ReportOptions) ([]byte, error) {
	rec := res.Record
	labels := student.Skills[:]
	values := rec.Scores.Values()

	var avg []float64
	if res.Comparison != nil {
		avg = res.Comparison.Scores[:]
	}
	bar, err := chart.BarPNG(labels, values, avg)
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	series := []chart.Series{{Name: rec.FullName(), Values: values}}
	if avg != nil {
		series = append(series, chart.Series{Name: res.Comparison.Label, Values: avg})
	}
	radar, err := chart.RadarPNG(labels, series...)
	if err != nil {
		return nil, fmt.Errorf("radar chart: %w", err)
	}

	notes, err := RenderNotes(rec.Notes)
	if err != nil {
		return nil, err
	}

	cfg := config{Kind: KindReport, Index: rec.Index, AutoPrint: opts.AutoPrint}
	if opts.AutoPrint && opts.AutoClose {
		cfg.AutoClose = true
		cfg.CloseFallbackMs = AutoCloseFallback.Milliseconds()
	}
	data := reportPage{
		page:       newPage("Bulletin de "+rec.FullName(), rec, cfg),
		Analysis:   res.Analysis,
		Narrative:  res.Narrative,
		Rows:       res.Rows,
		Comparison: res.Comparison,
		Behavior:   res.Behavior,
		BarChart:   template.URL(chart.DataURI(bar)),
		RadarChart: template.URL(chart.DataURI(radar)),
		Notes:      notes,
	}
	return execute("report.html", data)
}

type skillField struct {
	Key   string
	Label string
	Value int
}

type editPage struct {
	page
	Skills        []skillField
	BehaviorScore string
}

// Edit renders the edit form of rec. Saving sends the full record as JSON
// to saveURL with PUT.
func Edit(rec student.Record, saveURL string) ([]byte, error) {
	cfg := config{
		Kind:         KindEdit,
		Index:        rec.Index,
		SaveURL:      saveURL,
		SaveMethod:   "PUT",
		CloseDelayMs: SaveCloseDelay.Milliseconds(),
	}
	data := editPage{page: newPage("Modifier "+rec.FullName(), rec, cfg)}
	for i, key := range student.SkillKeys {
		data.Skills = append(data.Skills, skillField{Key: key, Label: student.Skills[i], Value: rec.Scores[i]})
	}
	if rec.Behavior.Score.IsSet() {
		data.BehaviorScore = strconv.Itoa(rec.Behavior.Score.Value())
	}
	return execute("edit.html", data)
}

type behaviorPage struct {
	page
	Checklist behavior.Checklist
	Score     int
}

// Behavior renders the behavior evaluation of rec, pre-filled from its
// stored details. Saving posts the checklist as JSON to saveURL.
func Behavior(rec student.Record, saveURL string) ([]byte, error) {
	c := behavior.ParseDetails(rec.Behavior.Details, rec.Behavior.Comment)
	cfg := config{
		Kind:         KindBehavior,
		Index:        rec.Index,
		SaveURL:      saveURL,
		SaveMethod:   "POST",
		CloseDelayMs: SaveCloseDelay.Milliseconds(),
		Base:         behavior.Base,
		Rules:        behavior.Rules(),
	}
	data := behaviorPage{
		page:      newPage("Comportement de "+rec.FullName(), rec, cfg),
		Checklist: c,
		Score:     c.Score(),
	}
	return execute("behavior.html", data)
}

// markdownEscaper backslash-escapes the punctuation goldmark would read as
// markup. HTML characters are left to html.EscapeString.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"#", `\#`, "+", `\+`, "-", `\-`, ".", `\.`,
	"!", `\!`, "|", `\|`, "~", `\~`, "=", `\=`,
)

// RenderNotes converts free-text notes to HTML paragraphs. The text is shown
// literally: tags are escaped, markdown punctuation is not interpreted and
// line breaks are kept.
func RenderNotes(notes string) (template.HTML, error) {
	if strings.TrimSpace(notes) == "" {
		return "", nil
	}
	literal := html.EscapeString(markdownEscaper.Replace(notes))
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(literal), &buf); err != nil {
		return "", fmt.Errorf("notes: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func newPage(title string, rec student.Record, cfg config) page {
	return page{Title: title, Record: rec, Config: cfg, Script: script, CSS: styles}
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// formatAverage prints an average the French way: "9,5".
func formatAverage(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}
