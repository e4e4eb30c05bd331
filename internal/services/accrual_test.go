package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestAccrual_ExpenseOverLimitNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)

	f.expense(t, "Food", 120000)

	assert.Equal(t, int64(120000), f.spent(t, b.ID))
	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ann@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Food")
	assert.Contains(t, sent[0].Body, "Food")
	assert.Contains(t, sent[0].Body, "1200")
	assert.Contains(t, sent[0].Body, "1000")
}

func TestAccrual_AtLimitDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)

	f.expense(t, "Food", 100000)

	assert.Equal(t, int64(100000), f.spent(t, b.ID))
	assert.Empty(t, f.notifier.Sent())
}

func TestAccrual_EveryPositiveAdjustmentOverLimitNotifies(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	f.budget(t, "Food", 1000)

	f.expense(t, "Food", 1500)
	f.expense(t, "Food", 100)

	assert.Len(t, f.notifier.Sent(), 2)
}

func TestAccrual_IncomeDoesNotTouchBudgets(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Salary", core.Income)
	b := f.budget(t, "Salary", 1000)

	f.write(t, "Salary", core.Income, 500000, f.clock.Now())

	assert.Equal(t, int64(0), f.spent(t, b.ID))
	assert.Empty(t, f.notifier.Sent())
}

func TestAccrual_UntrackedCategoryIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Travel", core.Expense)

	tx := f.expense(t, "Travel", 2500)

	assert.NotEmpty(t, tx.ID)
	assert.Empty(t, f.notifier.Sent())
}

func TestAccrual_UpdateSameCategoryAppliesDifference(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)
	tx := f.expense(t, "Food", 10000)

	_, err := f.txns.Update(f.ctx, f.user.ID, tx.ID, TransactionInput{
		Amount: core.Cents(15000), Type: core.Expense, Category: "Food", Date: tx.Date,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(15000), f.spent(t, b.ID))
}

func TestAccrual_UpdateLoweringAmountDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	f.budget(t, "Food", 1000)
	tx := f.expense(t, "Food", 5000)
	require.Len(t, f.notifier.Sent(), 1)

	_, err := f.txns.Update(f.ctx, f.user.ID, tx.ID, TransactionInput{
		Amount: core.Cents(4000), Type: core.Expense, Category: "Food", Date: tx.Date,
	})
	require.NoError(t, err)

	assert.Len(t, f.notifier.Sent(), 1)
}

func TestAccrual_UpdateMovesSpentBetweenCategories(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	f.category(t, "Rent", core.Expense)
	food := f.budget(t, "Food", 100000)
	rent := f.budget(t, "Rent", 100000)
	tx := f.expense(t, "Food", 3000)

	_, err := f.txns.Update(f.ctx, f.user.ID, tx.ID, TransactionInput{
		Amount: core.Cents(4500), Type: core.Expense, Category: "Rent", Date: tx.Date,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.spent(t, food.ID))
	assert.Equal(t, int64(4500), f.spent(t, rent.ID))
}

func TestAccrual_UpdateExpenseToIncomeReverses(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Misc", core.Expense)
	f.category(t, "Refunds", core.Income)
	b := f.budget(t, "Misc", 100000)
	tx := f.expense(t, "Misc", 2000)

	_, err := f.txns.Update(f.ctx, f.user.ID, tx.ID, TransactionInput{
		Amount: core.Cents(2000), Type: core.Income, Category: "Refunds", Date: tx.Date,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.spent(t, b.ID))
}

func TestAccrual_UpdateIncomeToExpenseApplies(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Refunds", core.Income)
	f.category(t, "Misc", core.Expense)
	b := f.budget(t, "Misc", 100000)
	tx := f.write(t, "Refunds", core.Income, 700, f.clock.Now())

	_, err := f.txns.Update(f.ctx, f.user.ID, tx.ID, TransactionInput{
		Amount: core.Cents(700), Type: core.Expense, Category: "Misc", Date: tx.Date,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(700), f.spent(t, b.ID))
}

func TestAccrual_DeleteReverses(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)
	keep := f.expense(t, "Food", 1200)
	gone := f.expense(t, "Food", 800)

	_, err := f.txns.Delete(f.ctx, f.user.ID, gone.ID)
	require.NoError(t, err)

	assert.Equal(t, keep.Amount.Cents, f.spent(t, b.ID))
}

func TestAccrual_DeleteCanDriveSpentNegative(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	tx := f.expense(t, "Food", 900)
	b := f.budget(t, "Food", 100000)

	_, err := f.txns.Delete(f.ctx, f.user.ID, tx.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(-900), f.spent(t, b.ID))

	// The budget stays editable.
	limit := core.Cents(200000)
	_, err = f.budgets.Update(f.ctx, f.user.ID, b.ID, BudgetPatch{Limit: &limit})
	require.NoError(t, err)
}

func TestAccrual_OnlyEarliestBudgetAccrues(t *testing.T) {
	f := newFixture(t)
	f.category(t, "Food", core.Expense)
	first := f.budget(t, "Food", 100000)
	second := f.budget(t, "Food", 100000)

	f.expense(t, "Food", 500)

	assert.Equal(t, int64(500), f.spent(t, first.ID))
	assert.Equal(t, int64(0), f.spent(t, second.ID))
}

func TestAccrual_NotifierFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100)

	tx := f.expense(t, "Food", 5000)

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, int64(5000), f.spent(t, b.ID))
}

func TestAccrual_DeletedCategoryRejectsNewTransactions(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Food", core.Expense)
	b := f.budget(t, "Food", 100000)
	first := f.expense(t, "Food", 1200)
	second := f.expense(t, "Food", 300)

	_, err := f.categories.Delete(f.ctx, f.user.ID, c.ID)
	require.NoError(t, err)

	// The budget and its transactions are orphaned, not removed.
	got, err := f.budgets.Get(f.ctx, f.user.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, int64(1500), got.Spent.Cents)

	budgets, err := f.budgets.List(f.ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, b.ID, budgets[0].ID)

	txns, err := f.txns.List(f.ctx, f.user.ID, core.TransactionFilter{Category: "Food"})
	require.NoError(t, err)
	ids := make([]string, 0, len(txns))
	for _, tx := range txns {
		ids = append(ids, tx.ID)
	}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	_, err = f.txns.Create(f.ctx, f.user.ID, TransactionInput{
		Amount: core.Cents(100), Type: core.Expense, Category: "Food", Date: f.clock.Now(),
	})
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.ErrorIs(t, err, core.ErrCategoryMismatch)
	assert.Equal(t, int64(1500), f.spent(t, b.ID))
}
