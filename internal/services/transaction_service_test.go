package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestTransactionService_RejectsTypeMismatch(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)

	_, err := f.txns.Create(f.ctx, f.user.ID, TransactionInput{
		Amount: core.Cents(5000), Type: core.Income, Category: "Food", Date: f.clock.Now(),
	})

	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.ErrorIs(t, err, core.ErrCategoryMismatch)
	assert.Equal(t, int64(0), f.spent(t, b.ID))

	list, err := f.txns.List(f.ctx, f.user.ID, core.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "rejected transaction must not be persisted")
}

func TestTransactionService_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)

	tests := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"zero amount", TransactionInput{Type: core.Expense, Category: "Food", Date: f.clock.Now()}, core.ErrInvalidAmount},
		{"bad type", TransactionInput{Amount: core.Cents(1), Type: "gift", Category: "Food", Date: f.clock.Now()}, core.ErrInvalidType},
		{"no category", TransactionInput{Amount: core.Cents(1), Type: core.Expense, Date: f.clock.Now()}, core.ErrEmptyCategory},
		{"no date", TransactionInput{Amount: core.Cents(1), Type: core.Expense, Category: "Food"}, core.ErrZeroDate},
		{"unknown category", TransactionInput{Amount: core.Cents(1), Type: core.Expense, Category: "Toys", Date: f.clock.Now()}, core.ErrCategoryMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.txns.Create(f.ctx, f.user.ID, tt.in)
			assert.Equal(t, core.KindValidation, core.KindOf(err))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransactionService_UpdateRejectedLeavesBudgetAlone(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)
	tx := f.expense(t, "Food", 1000)

	_, err := f.txns.Update(f.ctx, f.user.ID, tx.ID, TransactionInput{
		Amount: core.Cents(9000), Type: core.Income, Category: "Food", Date: tx.Date,
	})
	require.Error(t, err)

	assert.Equal(t, int64(1000), f.spent(t, b.ID))
	got, err := f.txns.Get(f.ctx, f.user.ID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Amount.Cents)
}

func TestTransactionService_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.txns.Get(f.ctx, f.user.ID, "missing")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))

	_, err = f.txns.Delete(f.ctx, f.user.ID, "missing")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))

	_, err = f.txns.Update(f.ctx, f.user.ID, "missing", TransactionInput{})
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestTransactionService_ScopedByUser(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	tx := f.expense(t, "Food", 100)

	_, err := f.txns.Get(f.ctx, "someone-else", tx.ID)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestTransactionService_ListFilters(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	f.category(t, "Salary", core.Income)

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	f.write(t, "Food", core.Expense, 100, jan)
	f.write(t, "Salary", core.Income, 5000, feb)
	f.write(t, "Food", core.Expense, 200, feb)

	all, err := f.txns.List(f.ctx, f.user.ID, core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, !all[0].Date.Before(all[2].Date), "newest first")

	food, err := f.txns.List(f.ctx, f.user.ID, core.TransactionFilter{Category: "Food"})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	income, err := f.txns.List(f.ctx, f.user.ID, core.TransactionFilter{Type: core.Income})
	require.NoError(t, err)
	assert.Len(t, income, 1)

	february, err := f.txns.List(f.ctx, f.user.ID, core.TransactionFilter{From: feb, To: feb.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, february, 2)

	_, err = f.txns.List(f.ctx, f.user.ID, core.TransactionFilter{Type: "gift"})
	assert.Equal(t, core.KindBadRequest, core.KindOf(err))

	_, err = f.txns.List(f.ctx, f.user.ID, core.TransactionFilter{From: feb, To: jan})
	assert.Equal(t, core.KindBadRequest, core.KindOf(err))
}
