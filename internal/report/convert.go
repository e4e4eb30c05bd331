package report

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Convert returns a copy of r with every monetary figure converted from
// r.Currency to target. Conversion happens per output value after
// aggregation. On the first failure the original report is returned with
// the error.
func Convert(ctx context.Context, r Report, conv ports.Converter, target string) (Report, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" || strings.EqualFold(target, r.Currency) {
		return r, nil
	}

	from := r.Currency
	var err error
	cv := func(m core.Money) core.Money {
		if err != nil {
			return m
		}
		var out core.Money
		out, err = conv.Convert(ctx, m, from, target)
		if err != nil {
			err = fmt.Errorf("convert %s to %s: %w", from, target, err)
		}
		return out
	}
	cvAll := func(in []core.Money) []core.Money {
		out := make([]core.Money, len(in))
		for i, m := range in {
			out[i] = cv(m)
		}
		return out
	}

	out := r
	out.Months = make([]Month, len(r.Months))
	for i, m := range r.Months {
		m.Income, m.Expenses = cv(m.Income), cv(m.Expenses)
		out.Months[i] = m
	}
	out.IncomeVsExpenses = IncomeVsExpenses{
		Labels:   r.IncomeVsExpenses.Labels,
		Income:   cvAll(r.IncomeVsExpenses.Income),
		Expenses: cvAll(r.IncomeVsExpenses.Expenses),
	}
	out.ExpenseCategories = LabeledSeries{Labels: r.ExpenseCategories.Labels, Values: cvAll(r.ExpenseCategories.Values)}
	out.NetIncomeTrend = LabeledSeries{Labels: r.NetIncomeTrend.Labels, Values: cvAll(r.NetIncomeTrend.Values)}
	out.TotalIncome = cv(r.TotalIncome)
	out.TotalExpenses = cv(r.TotalExpenses)
	if err != nil {
		return r, err
	}
	out.Currency = target
	out.Converted = true
	return out, nil
}
