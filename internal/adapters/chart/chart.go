// Package chart renders report charts to in-memory PNG images.
package chart

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"gradebook/internal/domain/student"
)

// Chart sizes in pixels.
const (
	BarWidth    = 640
	BarHeight   = 300
	RadarWidth  = 420
	RadarHeight = 420
)

var (
	studentColor = drawing.ColorFromHex("2563eb")
	averageColor = drawing.ColorFromHex("9ca3af")
	gridColor    = drawing.ColorFromHex("d1d5db")
	labelColor   = drawing.ColorFromHex("374151")
)

var errBadLabels = errors.New("labels and values differ in length")

// Series is one polygon or set of bars.
type Series struct {
	Name   string
	Values []float64
}

// BarPNG draws one bar per label for the student. When average is non-nil,
// a grey comparison bar follows each student bar.
// PRE: len(values) == len(labels); average is nil or the same length
// POST: Returns PNG bytes; the y axis always spans 0..MaxScore
func BarPNG(labels []string, values []float64, average []float64) ([]byte, error) {
	if len(labels) != len(values) || (average != nil && len(average) != len(values)) {
		return nil, errBadLabels
	}

	bars := make([]gochart.Value, 0, 2*len(values))
	for i, v := range values {
		bars = append(bars, gochart.Value{
			Label: labels[i],
			Value: v,
			Style: gochart.Style{FillColor: studentColor, StrokeColor: studentColor, StrokeWidth: 1},
		})
		if average != nil {
			bars = append(bars, gochart.Value{
				Label: "moy.",
				Value: average[i],
				Style: gochart.Style{FillColor: averageColor, StrokeColor: averageColor, StrokeWidth: 1},
			})
		}
	}

	barWidth := 56
	if average != nil {
		barWidth = 30
	}
	bc := gochart.BarChart{
		Width:      BarWidth,
		Height:     BarHeight,
		BarWidth:   barWidth,
		BarSpacing: 12,
		Background: gochart.Style{Padding: gochart.Box{Top: 24, Left: 8, Right: 8, Bottom: 8}},
		XAxis:      gochart.Style{FontSize: 8, FontColor: labelColor},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: student.MaxScore},
			Ticks: scoreTicks(),
			Style: gochart.Style{FontSize: 8, FontColor: labelColor},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

func scoreTicks() []gochart.Tick {
	ticks := make([]gochart.Tick, 0, 5)
	for v := 0; v <= student.MaxScore; v += 5 {
		ticks = append(ticks, gochart.Tick{Value: float64(v), Label: fmt.Sprint(v)})
	}
	return ticks
}

// RadarPNG draws each series as a polygon over one spoke per label.
// The first series is drawn in the student colour, later ones in grey.
// PRE: every series has len(labels) values; len(labels) >= 3
// POST: Returns PNG bytes; values are scaled against MaxScore
func RadarPNG(labels []string, series ...Series) ([]byte, error) {
	n := len(labels)
	if n < 3 {
		return nil, errors.New("radar needs at least three axes")
	}
	for _, s := range series {
		if len(s.Values) != n {
			return nil, errBadLabels
		}
	}

	r, err := gochart.PNG(RadarWidth, RadarHeight)
	if err != nil {
		return nil, fmt.Errorf("radar chart: %w", err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("radar chart: %w", err)
	}

	cx, cy := RadarWidth/2, RadarHeight/2
	radius := float64(RadarWidth)/2 - 70

	// Background.
	r.SetFillColor(gochart.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(RadarWidth, 0)
	r.LineTo(RadarWidth, RadarHeight)
	r.LineTo(0, RadarHeight)
	r.Close()
	r.Fill()

	// Rings at 5, 10, 15, 20.
	r.ResetStyle()
	r.SetStrokeColor(gridColor)
	r.SetStrokeWidth(1)
	for ring := 1; ring <= 4; ring++ {
		polygon(r, cx, cy, n, func(int) float64 { return radius * float64(ring) / 4 })
		r.Stroke()
	}
	for i := 0; i < n; i++ {
		x, y := spoke(cx, cy, i, n, radius)
		r.MoveTo(cx, cy)
		r.LineTo(x, y)
		r.Stroke()
	}

	for si, s := range series {
		col := averageColor
		if si == 0 {
			col = studentColor
		}
		r.ResetStyle()
		r.SetStrokeColor(col)
		r.SetStrokeWidth(2)
		r.SetFillColor(col.WithAlpha(60))
		values := s.Values
		polygon(r, cx, cy, n, func(i int) float64 {
			v := math.Max(0, math.Min(values[i], student.MaxScore))
			return radius * v / student.MaxScore
		})
		r.FillStroke()
	}

	r.ResetStyle()
	r.SetFont(font)
	r.SetFontSize(10)
	r.SetFontColor(labelColor)
	for i, label := range labels {
		x, y := spoke(cx, cy, i, n, radius+14)
		box := r.MeasureText(label)
		switch {
		case x < cx-4:
			x -= box.Width()
		case x <= cx+4:
			x -= box.Width() / 2
		}
		if y > cy {
			y += box.Height()
		}
		r.Text(label, x, y)
	}

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, fmt.Errorf("radar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// spoke returns the point at distance d on axis i of n, starting at 12 o'clock.
func spoke(cx, cy, i, n int, d float64) (int, int) {
	angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
	return cx + int(math.Round(d*math.Cos(angle))), cy + int(math.Round(d*math.Sin(angle)))
}

func polygon(r gochart.Renderer, cx, cy, n int, dist func(int) float64) {
	for i := 0; i < n; i++ {
		x, y := spoke(cx, cy, i, n, dist(i))
		if i == 0 {
			r.MoveTo(x, y)
		} else {
			r.LineTo(x, y)
		}
	}
	r.Close()
}

// DataURI encodes PNG bytes for inline embedding.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
