package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
	"fintrack/internal/storage/storetest"
)

type sentMail struct {
	To, Subject, Body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{to, subject, body})
	return nil
}

func (n *recordingNotifier) Sent() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

// fixedRates converts by multiplying with a per-target rate.
type fixedRates struct {
	mu    sync.Mutex
	rates map[string]float64
	err   error
	calls int
}

func (f *fixedRates) Convert(_ context.Context, amount core.Money, from, to string) (core.Money, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return core.Money{}, f.err
	}
	rate, ok := f.rates[strings.ToUpper(to)]
	if !ok {
		return core.Money{}, errors.New("unknown currency " + to)
	}
	return core.Money{Cents: int64(float64(amount.Cents)*rate + 0.5)}, nil
}

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	clock      *storetest.Clock
	notifier   *recordingNotifier
	txns       *TransactionService
	budgets    *BudgetService
	categories *CategoryService
	user       core.User
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := storetest.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	store := memory.New().WithClock(clock.Now)
	notifier := &recordingNotifier{}
	logger := quietLogger()

	dispatcher := NewNotificationDispatcher(notifier, store, time.Second, logger)
	accrual := NewAccrualEngine(store, dispatcher, logger)
	f := &fixture{
		ctx:        context.Background(),
		store:      store,
		clock:      clock,
		notifier:   notifier,
		txns:       NewTransactionService(store, NewTransactionValidator(store), accrual, logger),
		budgets:    NewBudgetService(store, store, logger),
		categories: NewCategoryService(store),
	}

	u, err := store.CreateUser(f.ctx, core.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	f.user = u
	return f
}

func (f *fixture) category(t *testing.T, name string, typ core.TransactionType) core.Category {
	t.Helper()
	c, err := f.categories.Create(f.ctx, f.user.ID, CategoryInput{Name: name, Type: typ})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return c
}

func (f *fixture) budget(t *testing.T, category string, limit int64) core.Budget {
	t.Helper()
	b, err := f.budgets.Create(f.ctx, f.user.ID, BudgetInput{Category: category, Limit: core.Cents(limit), Period: core.Monthly})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return b
}

func (f *fixture) expense(t *testing.T, category string, cents int64) core.Transaction {
	t.Helper()
	return f.write(t, category, core.Expense, cents, f.clock.Now())
}

func (f *fixture) write(t *testing.T, category string, typ core.TransactionType, cents int64, date time.Time) core.Transaction {
	t.Helper()
	tx, err := f.txns.Create(f.ctx, f.user.ID, TransactionInput{
		Amount:   core.Cents(cents),
		Type:     typ,
		Category: category,
		Date:     date,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return tx
}

func (f *fixture) spent(t *testing.T, budgetID string) int64 {
	t.Helper()
	b, err := f.budgets.Get(f.ctx, f.user.ID, budgetID)
	require.NoError(t, err)
	return b.Spent.Cents
}
