package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestBudgetService_CreateRejectsSpent(t *testing.T) {
	f := newFixture(t)
	spent := core.Cents(500)

	_, err := f.budgets.Create(f.ctx, f.user.ID, BudgetInput{
		Category: "Food", Limit: core.Cents(1000), Period: core.Monthly, Spent: &spent,
	})

	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.ErrorIs(t, err, core.ErrSpentNotWritable)
}

func TestBudgetService_CreateStartsAtZero(t *testing.T) {
	f := newFixture(t)
	zero := core.Cents(0)

	b, err := f.budgets.Create(f.ctx, f.user.ID, BudgetInput{
		Category: "Food", Limit: core.Cents(1000), Period: core.Weekly, Spent: &zero,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Spent.Cents)
}

func TestBudgetService_CreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   BudgetInput
		want error
	}{
		{"no category", BudgetInput{Limit: core.Cents(1), Period: core.Monthly}, core.ErrEmptyCategory},
		{"no limit", BudgetInput{Category: "Food", Period: core.Monthly}, core.ErrInvalidAmount},
		{"bad period", BudgetInput{Category: "Food", Limit: core.Cents(1), Period: "daily"}, core.ErrInvalidPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.budgets.Create(f.ctx, f.user.ID, tt.in)
			assert.Equal(t, core.KindValidation, core.KindOf(err))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBudgetService_UpdateRejectsSpent(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)
	f.expense(t, "Food", 300)

	spent := core.Cents(0)
	_, err := f.budgets.Update(f.ctx, f.user.ID, b.ID, BudgetPatch{Spent: &spent})

	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.ErrorIs(t, err, core.ErrSpentNotWritable)
	assert.Equal(t, int64(300), f.spent(t, b.ID))
}

func TestBudgetService_UpdateKeepsSpent(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)
	f.expense(t, "Food", 300)

	limit := core.Cents(50000)
	period := core.Yearly
	updated, err := f.budgets.Update(f.ctx, f.user.ID, b.ID, BudgetPatch{Limit: &limit, Period: &period})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), updated.Limit.Cents)
	assert.Equal(t, core.Yearly, updated.Period)
	assert.Equal(t, int64(300), updated.Spent.Cents)
}

func TestBudgetService_CheckNeverNotifies(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	f.category(t, "Rent", core.Expense)
	f.budget(t, "Food", 1000)
	f.budget(t, "Rent", 100000)
	f.expense(t, "Food", 1500)
	f.expense(t, "Rent", 100)
	require.Len(t, f.notifier.Sent(), 1)

	statuses, err := f.budgets.Check(f.ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byCategory := map[string]core.BudgetStatus{}
	for _, s := range statuses {
		byCategory[s.Budget.Category] = s
	}
	assert.True(t, byCategory["Food"].Exceeded)
	assert.Equal(t, int64(-500), byCategory["Food"].Remaining.Cents)
	assert.False(t, byCategory["Rent"].Exceeded)
	assert.Equal(t, int64(99900), byCategory["Rent"].Remaining.Cents)

	assert.Len(t, f.notifier.Sent(), 1, "check must not send a second alert")
}

func TestBudgetService_ReconcileCorrectsDrift(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	f.category(t, "Salary", core.Income)
	f.expense(t, "Food", 999) // predates the budget
	b := f.budget(t, "Food", 100000)
	f.expense(t, "Food", 400)
	f.expense(t, "Food", 600)
	f.write(t, "Salary", core.Income, 100000, f.clock.Now())

	_, err := f.store.SetBudgetSpent(f.ctx, f.user.ID, b.ID, 42)
	require.NoError(t, err)

	results, err := f.budgets.Reconcile(f.ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Changed)
	assert.Equal(t, int64(42), results[0].Previous.Cents)
	assert.Equal(t, int64(1000), results[0].Budget.Spent.Cents)
	assert.Equal(t, int64(1000), f.spent(t, b.ID))

	again, err := f.budgets.Reconcile(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, again[0].Changed)
}

func TestBudgetService_ReconcileLeavesLaterDuplicates(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	first := f.budget(t, "Food", 100000)
	second := f.budget(t, "Food", 100000)
	f.expense(t, "Food", 250)

	results, err := f.budgets.Reconcile(f.ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(250), f.spent(t, first.ID))
	assert.Equal(t, int64(0), f.spent(t, second.ID))
	for _, r := range results {
		assert.False(t, r.Changed)
	}
}

func TestBudgetService_DeleteAndNotFound(t *testing.T) {
	f := newFixture(t)
	b := f.budget(t, "Food", 100)

	_, err := f.budgets.Delete(f.ctx, f.user.ID, b.ID)
	require.NoError(t, err)

	_, err = f.budgets.Get(f.ctx, f.user.ID, b.ID)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	_, err = f.budgets.Delete(f.ctx, f.user.ID, b.ID)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}
