// Package report turns a transaction set into monthly chart series and an
// exportable archive.
package report

import (
	"strings"

	"fintrack/internal/core"
)

const UncategorizedLabel = "Uncategorized"

// Month is one YYYY-MM bucket.
type Month struct {
	Key      string     `json:"key"`
	Label    string     `json:"label"`
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
}

func (m Month) Net() core.Money { return m.Income.Sub(m.Expenses) }

type IncomeVsExpenses struct {
	Labels   []string     `json:"labels"`
	Income   []core.Money `json:"income"`
	Expenses []core.Money `json:"expenses"`
}

type LabeledSeries struct {
	Labels []string     `json:"labels"`
	Values []core.Money `json:"values"`
}

// Report is the aggregate of one transaction set.
type Report struct {
	Months            []Month          `json:"months"`
	IncomeVsExpenses  IncomeVsExpenses `json:"incomeVsExpenses"`
	ExpenseCategories LabeledSeries    `json:"expenseCategories"`
	NetIncomeTrend    LabeledSeries    `json:"netIncomeTrend"`
	TotalIncome       core.Money       `json:"totalIncome"`
	TotalExpenses     core.Money       `json:"totalExpenses"`
	Currency          string           `json:"currency"`
	Converted         bool             `json:"converted"`
}

// Build aggregates txns. Buckets appear in order of first occurrence, so
// callers pass txns sorted by date ascending to get chronological series.
// Totals are summed over the whole set, independent of bucketing.
func Build(txns []core.Transaction) Report {
	var (
		months     []Month
		monthIdx   = map[string]int{}
		categories []string
		catTotals  = map[string]int64{}
		r          Report
	)

	for _, t := range txns {
		key := t.Date.Format("2006-01")
		i, ok := monthIdx[key]
		if !ok {
			i = len(months)
			monthIdx[key] = i
			months = append(months, Month{Key: key, Label: t.Date.Format("Jan 2006")})
		}

		switch t.Type {
		case core.Income:
			months[i].Income.Cents += t.Amount.Cents
			r.TotalIncome.Cents += t.Amount.Cents
		case core.Expense:
			months[i].Expenses.Cents += t.Amount.Cents
			r.TotalExpenses.Cents += t.Amount.Cents

			cat := strings.TrimSpace(t.Category)
			if cat == "" {
				cat = UncategorizedLabel
			}
			if _, ok := catTotals[cat]; !ok {
				categories = append(categories, cat)
			}
			catTotals[cat] += t.Amount.Cents
		}
	}

	r.Months = months
	r.IncomeVsExpenses = IncomeVsExpenses{
		Labels:   make([]string, 0, len(months)),
		Income:   make([]core.Money, 0, len(months)),
		Expenses: make([]core.Money, 0, len(months)),
	}
	r.NetIncomeTrend = LabeledSeries{
		Labels: make([]string, 0, len(months)),
		Values: make([]core.Money, 0, len(months)),
	}
	for _, m := range months {
		r.IncomeVsExpenses.Labels = append(r.IncomeVsExpenses.Labels, m.Label)
		r.IncomeVsExpenses.Income = append(r.IncomeVsExpenses.Income, m.Income)
		r.IncomeVsExpenses.Expenses = append(r.IncomeVsExpenses.Expenses, m.Expenses)
		r.NetIncomeTrend.Labels = append(r.NetIncomeTrend.Labels, m.Label)
		r.NetIncomeTrend.Values = append(r.NetIncomeTrend.Values, m.Net())
	}

	r.ExpenseCategories = LabeledSeries{
		Labels: categories,
		Values: make([]core.Money, 0, len(categories)),
	}
	if r.ExpenseCategories.Labels == nil {
		r.ExpenseCategories.Labels = []string{}
	}
	for _, c := range categories {
		r.ExpenseCategories.Values = append(r.ExpenseCategories.Values, core.Money{Cents: catTotals[c]})
	}
	return r
}

// NetIncome is TotalIncome minus TotalExpenses.
func (r Report) NetIncome() core.Money {
	return r.TotalIncome.Sub(r.TotalExpenses)
}

// Rows flattens the monthly buckets into a header plus one row per month.
func (r Report) Rows() [][]any {
	rows := [][]any{{"Month", "Income", "Expenses", "Net"}}
	for _, m := range r.Months {
		rows = append(rows, []any{m.Label, m.Income.Float64(), m.Expenses.Float64(), m.Net().Float64()})
	}
	rows = append(rows, []any{"Total", r.TotalIncome.Float64(), r.TotalExpenses.Float64(), r.NetIncome().Float64()})
	return rows
}
