package report

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 1024
	chartHeight = 512
)

var (
	incomeColor  = drawing.ColorFromHex("2e7d32")
	expenseColor = drawing.ColorFromHex("c62828")
	netColor     = drawing.ColorFromHex("1565c0")
)

// valueRange pads a flat series so the chart always has a non-zero span.
func valueRange(values ...float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1 {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi * 1.1}
}

func barWidth(n int) int {
	w := (chartWidth - 120) / (2 * n)
	return max(4, min(32, w))
}

// RenderIncomeVsExpenses draws paired income and expense bars per month.
func RenderIncomeVsExpenses(w io.Writer, r Report) error {
	var (
		bars   []chart.Value
		values []float64
	)
	for _, m := range r.Months {
		in, out := m.Income.Float64(), m.Expenses.Float64()
		bars = append(bars,
			chart.Value{Label: m.Label + " in", Value: in, Style: chart.Style{FillColor: incomeColor, StrokeColor: incomeColor}},
			chart.Value{Label: m.Label + " out", Value: out, Style: chart.Style{FillColor: expenseColor, StrokeColor: expenseColor}},
		)
		values = append(values, in, out)
	}
	if len(bars) == 0 {
		bars = []chart.Value{{Label: "No data", Value: 0}}
	}

	graph := chart.BarChart{
		Title:      "Income vs Expenses (" + r.Currency + ")",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth(len(bars)),
		YAxis:      chart.YAxis{Range: valueRange(values...)},
		Bars:       bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render income vs expenses chart: %w", err)
	}
	return nil
}

// RenderExpenseCategories draws the share of each expense category.
func RenderExpenseCategories(w io.Writer, r Report) error {
	var values []chart.Value
	for i, label := range r.ExpenseCategories.Labels {
		if v := r.ExpenseCategories.Values[i].Float64(); v > 0 {
			values = append(values, chart.Value{Label: label, Value: v})
		}
	}
	if len(values) == 0 {
		values = []chart.Value{{Label: "No expenses", Value: 1}}
	}

	graph := chart.PieChart{
		Title:  "Expenses by Category (" + r.Currency + ")",
		Width:  chartHeight,
		Height: chartHeight,
		Values: values,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render expense categories chart: %w", err)
	}
	return nil
}

// RenderNetIncomeTrend draws net income per month as a line.
func RenderNetIncomeTrend(w io.Writer, r Report) error {
	var (
		xs, ys []float64
		ticks  []chart.Tick
	)
	for i, m := range r.Months {
		xs = append(xs, float64(i))
		ys = append(ys, m.Net().Float64())
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: m.Label})
	}
	if len(xs) == 0 {
		xs, ys = []float64{0}, []float64{0}
		ticks = []chart.Tick{{Value: 0, Label: "No data"}}
	}
	// A line needs two x values; a single month is drawn flat across the axis.
	if len(xs) == 1 {
		xs = append(xs, 1)
		ys = append(ys, ys[0])
		ticks = append(ticks, chart.Tick{Value: 1})
	}
	yr := valueRange(ys...)
	if yr.Min < 0 {
		yr.Min *= 1.1
	}

	graph := chart.Chart{
		Title:      "Net Income Trend (" + r.Currency + ")",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20}},
		Width:      chartWidth,
		Height:     chartHeight,
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(xs) - 1)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{Range: yr},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Net income",
				Style:   chart.Style{StrokeColor: netColor, StrokeWidth: 3},
				XValues: xs,
				YValues: ys,
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render net income chart: %w", err)
	}
	return nil
}
