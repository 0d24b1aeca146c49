// Package charts renders analysis views as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"tietkiem/internal/core"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

const (
	width  = 1200
	height = 600
	// slices under this share of the total are folded into "Khác"
	minSliceShare = 0.01
)

var padding = chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50}

// DailyChart draws expense and income per day of a month.
func DailyChart(days []core.DailyTotal) ([]byte, error) {
	if len(days) == 0 {
		return nil, ErrNoData
	}

	xs := make([]time.Time, 0, len(days)+1)
	expenses := make([]float64, 0, len(days)+1)
	incomes := make([]float64, 0, len(days)+1)
	// a single point has no x range, anchor it with an empty previous day
	if len(days) == 1 {
		xs = append(xs, days[0].Date.AddDate(0, 0, -1))
		expenses = append(expenses, 0)
		incomes = append(incomes, 0)
	}
	top := 0.0
	for _, d := range days {
		xs = append(xs, d.Date.Time)
		expenses = append(expenses, d.Expense)
		incomes = append(incomes, d.Income)
		top = max(top, d.Expense, d.Income)
	}
	if top == 0 {
		top = 1
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding:   padding,
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02/01"),
			Style:          chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return core.FormatCurrency(f)
				}
				return ""
			},
			Style: chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Chi tiêu",
				XValues: xs,
				YValues: expenses,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Thu nhập",
				XValues: xs,
				YValues: incomes,
				Style:   chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{FontSize: 12, FontColor: chart.ColorBlack}),
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render daily chart: %w", err)
	}
	return buf.Bytes(), nil
}

// CategoryPie draws category totals as a pie chart.
func CategoryPie(totals []core.CategoryTotal) ([]byte, error) {
	values := pieValues(totals)
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Width:  width,
		Height: height,
		Values: values,
		Background: chart.Style{
			Padding:   padding,
			FillColor: chart.ColorWhite,
		},
	}

	buf := bytes.NewBuffer(nil)
	if err := pie.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buf.Bytes(), nil
}

func pieValues(totals []core.CategoryTotal) []chart.Value {
	sum := 0.0
	for _, t := range totals {
		if t.Total > 0 {
			sum += t.Total
		}
	}
	if sum == 0 {
		return nil
	}

	var (
		values []chart.Value
		folded float64
	)
	for _, t := range totals {
		if t.Total <= 0 {
			continue
		}
		share := t.Total / sum
		if share < minSliceShare {
			folded += t.Total
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", t.Category, core.FormatCurrency(t.Total), share*100),
			Value: t.Total,
		})
	}
	if folded > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Khác: %s", core.FormatCurrency(folded)),
			Value: folded,
		})
	}
	return values
}
