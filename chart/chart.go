// Package chart renders star history time series as SVG line charts.
package chart

import (
	"fmt"
	"os"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"starhistory/models"
)

// ErrNoMeaningfulData signals that the series holds too few points to plot.
// It is a domain condition, not a defect.
var ErrNoMeaningfulData = fmt.Errorf("no meaningful data")

const (
	chartWidth  = 500
	chartHeight = 250
)

// fallback for languages missing from the color table
var defaultSeriesColor = drawing.Color{R: 255, A: 255}

// Renderer draws star history charts using an injected language color table.
type Renderer struct {
	colors map[string]drawing.Color
}

// NewRenderer creates a renderer from a language to hex color mapping
func NewRenderer(colors map[string]string) (*Renderer, error) {
	parsed := make(map[string]drawing.Color, len(colors))
	for language, hex := range colors {
		color, err := parseHexColor(hex)
		if err != nil {
			return nil, err
		}
		parsed[language] = color
	}
	return &Renderer{colors: parsed}, nil
}

func (r *Renderer) seriesColor(language string) drawing.Color {
	if color, ok := r.colors[language]; ok {
		return color
	}
	return defaultSeriesColor
}

// RenderLanguageHistory draws one line per language and writes the chart as
// SVG to path.
func (r *Renderer) RenderLanguageHistory(points []models.LanguagePoint, path string) error {
	if len(points) < 2 {
		return ErrNoMeaningfulData
	}

	// Group points per language, preserving first-seen order.
	var languages []string
	byLanguage := make(map[string][]models.LanguagePoint)
	for _, point := range points {
		if _, ok := byLanguage[point.Language]; !ok {
			languages = append(languages, point.Language)
		}
		byLanguage[point.Language] = append(byLanguage[point.Language], point)
	}

	series := make([]gochart.Series, 0, len(languages))
	for _, language := range languages {
		xs := make([]time.Time, 0, len(byLanguage[language]))
		ys := make([]float64, 0, len(byLanguage[language]))
		for _, point := range byLanguage[language] {
			xs = append(xs, point.Date)
			ys = append(ys, float64(point.Count))
		}
		series = append(series, gochart.TimeSeries{
			Name: language,
			Style: gochart.Style{
				StrokeColor: r.seriesColor(language),
				StrokeWidth: 1,
			},
			XValues: xs,
			YValues: ys,
		})
	}

	graph := gochart.Chart{
		Title:  "Number of stargazers by language",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	return writeChart(&graph, path)
}

// RenderTotalHistory draws the aggregate cumulative series and writes the
// chart as SVG to path.
func (r *Renderer) RenderTotalHistory(points []models.TotalPoint, path string) error {
	if len(points) < 2 {
		return ErrNoMeaningfulData
	}

	xs := make([]time.Time, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, point := range points {
		xs = append(xs, point.Date)
		ys = append(ys, float64(point.Count))
	}

	graph := gochart.Chart{
		Title:  "Total number of stargazers",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Style: gochart.Style{
					StrokeColor: drawing.ColorBlack,
					StrokeWidth: 1,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	return writeChart(&graph, path)
}

func writeChart(graph *gochart.Chart, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(gochart.SVG, f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	return nil
}
