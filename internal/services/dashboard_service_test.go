package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

func newDashboard(f *fixture, conv *fixedRates) *DashboardService {
	var svc *DashboardService
	if conv == nil {
		svc = NewDashboardService(f.store, f.store, nil, ReportServiceConfig{BaseCurrency: "USD"}, quietLogger())
	} else {
		svc = NewDashboardService(f.store, f.store, conv, ReportServiceConfig{BaseCurrency: "USD"}, quietLogger())
	}
	svc.now = f.clock.Now
	return svc
}

func seedDashboard(t *testing.T, f *fixture) {
	t.Helper()
	f.category(t, "Food", core.Expense)
	f.category(t, "Rent", core.Expense)
	f.category(t, "Salary", core.Income)
	f.budget(t, "Food", 10000)

	march := f.clock.Now()
	f.write(t, "Salary", core.Income, 300000, march)
	f.write(t, "Rent", core.Expense, 120000, march)
	f.write(t, "Food", core.Expense, 4000, march)
	f.write(t, "Food", core.Expense, 9000, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))
}

func TestMonthBounds(t *testing.T) {
	from, to := monthBounds(time.Date(2024, 2, 14, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC), to)
}

func TestDashboardService_CurrentMonth(t *testing.T) {
	f := newFixture(t)
	seedDashboard(t, f)

	d, err := newDashboard(f, nil).Get(f.ctx, f.user.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "2024-03", d.Month)
	assert.Equal(t, int64(300000), d.Income.Cents)
	assert.Equal(t, int64(124000), d.Expenses.Cents)
	assert.Equal(t, int64(176000), d.Balance.Cents)
	assert.Equal(t, []CategoryTotal{
		{Category: "Rent", Amount: core.Cents(120000)},
		{Category: "Food", Amount: core.Cents(4000)},
	}, d.Categories)

	require.Len(t, d.Budgets, 1)
	assert.Equal(t, int64(13000), d.Budgets[0].Budget.Spent.Cents)
	assert.True(t, d.Budgets[0].Exceeded)

	assert.Len(t, d.Recent, 4)
	assert.False(t, d.Converted)
	assert.Equal(t, "USD", d.Currency)
}

func TestDashboardService_RecentIsCapped(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	for i := 0; i < 12; i++ {
		f.expense(t, "Food", int64(100+i))
	}

	d, err := newDashboard(f, nil).Get(f.ctx, f.user.ID, "")
	require.NoError(t, err)

	require.Len(t, d.Recent, recentTransactions)
	assert.Equal(t, int64(111), d.Recent[0].Amount.Cents, "newest first")
}

// filterRecorder remembers every listing filter the dashboard asks for.
type filterRecorder struct {
	ports.TransactionStore
	filters []core.TransactionFilter
}

func (r *filterRecorder) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	r.filters = append(r.filters, f)
	return r.TransactionStore.ListTransactions(ctx, userID, f)
}

func TestDashboardService_RecentQueryIsBounded(t *testing.T) {
	f := newFixture(t)
	seedDashboard(t, f)
	rec := &filterRecorder{TransactionStore: f.store}
	svc := NewDashboardService(rec, f.store, nil, ReportServiceConfig{BaseCurrency: "USD"}, quietLogger())
	svc.now = f.clock.Now

	_, err := svc.Get(f.ctx, f.user.ID, "")
	require.NoError(t, err)

	require.NotEmpty(t, rec.filters)
	for _, flt := range rec.filters {
		unbounded := flt.From.IsZero() && flt.To.IsZero() && flt.Limit == 0
		assert.False(t, unbounded, "dashboard listed every transaction: %+v", flt)
	}
}

func TestDashboardService_ConvertsPerCategory(t *testing.T) {
	f := newFixture(t)
	seedDashboard(t, f)
	conv := &fixedRates{rates: map[string]float64{"EUR": 0.5}}

	d, err := newDashboard(f, conv).Get(f.ctx, f.user.ID, "eur")
	require.NoError(t, err)

	assert.True(t, d.Converted)
	assert.Equal(t, "EUR", d.Currency)
	assert.Equal(t, int64(150000), d.Income.Cents)
	assert.Equal(t, int64(62000), d.Expenses.Cents)
	assert.Equal(t, int64(88000), d.Balance.Cents)
	assert.Equal(t, int64(60000), d.Categories[0].Amount.Cents)
	assert.Equal(t, "Rent", d.Categories[0].Category)
	assert.Equal(t, int64(2000), d.Categories[1].Amount.Cents)
	// Two categories plus income, expenses and balance.
	assert.Equal(t, 5, conv.calls)
}

func TestDashboardService_ConversionFailureDegrades(t *testing.T) {
	f := newFixture(t)
	seedDashboard(t, f)
	conv := &fixedRates{err: errors.New("timeout")}

	d, err := newDashboard(f, conv).Get(f.ctx, f.user.ID, "EUR")
	require.NoError(t, err)

	assert.False(t, d.Converted)
	assert.Equal(t, "USD", d.Currency)
	assert.Equal(t, int64(120000), d.Categories[0].Amount.Cents)
}

func TestDashboardService_SameCurrencyIsNoop(t *testing.T) {
	f := newFixture(t)
	seedDashboard(t, f)
	conv := &fixedRates{rates: map[string]float64{"USD": 1}}

	d, err := newDashboard(f, conv).Get(f.ctx, f.user.ID, "usd")
	require.NoError(t, err)

	assert.False(t, d.Converted)
	assert.Zero(t, conv.calls)
}
