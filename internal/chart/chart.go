// Package chart draws the dashboard bar charts as SVG.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there are no bars to draw.
var ErrNoData = errors.New("no data to chart")

// Default canvas size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 480
)

var barColor = drawing.ColorFromHex("1f77b4")

// Bar is one labelled value.
type Bar struct {
	Label string
	Value float64
}

// Spec describes a bar chart.
type Spec struct {
	Title  string
	YLabel string
	Bars   []Bar
	Width  int
	Height int
}

// RenderSVG writes the chart as SVG. Bars are drawn left to right in the given order.
func RenderSVG(w io.Writer, s Spec) error {
	if len(s.Bars) == 0 {
		return ErrNoData
	}
	width, height := s.Width, s.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	maxValue := 0.0
	values := make([]gochart.Value, len(s.Bars))
	for i, b := range s.Bars {
		if b.Value > maxValue {
			maxValue = b.Value
		}
		values[i] = gochart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: gochart.Style{FillColor: barColor, StrokeColor: barColor},
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	// Leave room for the y axis and rotated labels.
	slot := (width - 160) / len(s.Bars)
	if slot < 4 {
		slot = 4
	}
	barWidth := slot * 7 / 10
	if barWidth < 2 {
		barWidth = 2
	}

	axisMax := maxValue * 1.1
	bc := gochart.BarChart{
		Title:      s.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: slot - barWidth,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 110}},
		XAxis:      gochart.Style{TextRotationDegrees: 45},
		YAxis: gochart.YAxis{
			Name:           s.YLabel,
			Range:          &gochart.ContinuousRange{Min: 0, Max: axisMax},
			ValueFormatter: tickFormatter(axisMax),
		},
		Bars: values,
	}
	if err := bc.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render bar chart %q: %w", s.Title, err)
	}
	return nil
}

// smallAxis is the axis maximum below which ticks keep two decimals.
const smallAxis = 10

// tickFormatter formats axis ticks with thousands separators. Axes spanning
// less than smallAxis keep two decimals so neighbouring ticks stay distinct.
func tickFormatter(axisMax float64) gochart.ValueFormatter {
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return fmt.Sprint(v)
		}
		if axisMax < smallAxis {
			return humanize.FormatFloat("#,###.##", f)
		}
		return humanize.Commaf(float64(int64(f)))
	}
}
