// Package storetest is a behaviour suite shared by every ports.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Clock is a settable time source for stores under test.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{t: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Factory builds an empty store driven by clock.
type Factory func(t *testing.T, clock *Clock) ports.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(*testing.T, ports.Store, *Clock)
	}{
		{"Users", testUsers},
		{"Categories", testCategories},
		{"BudgetsSurviveCategoryDelete", testOrphanedBudgets},
		{"AdjustBudgetSpent", testAdjustSpent},
		{"AdjustBudgetSpentConcurrent", testAdjustSpentConcurrent},
		{"Transactions", testTransactions},
		{"RevokedTokens", testRevokedTokens},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
			tc.fn(t, newStore(t, clock), clock)
		})
	}
}

func testUsers(t *testing.T, s ports.Store, _ *Clock) {
	ctx := context.Background()
	u, err := s.CreateUser(ctx, core.User{Name: "Ana", Email: "Ana@Example.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.Email != "ana@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := s.CreateUser(ctx, core.User{Name: "Other", Email: "ana@example.com"}); !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	got, err := s.GetUserByEmail(ctx, " ANA@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("by email: %+v %v", got, err)
	}
	u.Name = "Ana Maria"
	if upd, err := s.UpdateUser(ctx, u); err != nil || upd.Name != "Ana Maria" {
		t.Fatalf("update: %+v %v", upd, err)
	}
	if _, err := s.GetUser(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testCategories(t *testing.T, s ports.Store, _ *Clock) {
	ctx := context.Background()
	food, err := s.CreateCategory(ctx, core.Category{UserID: "u1", Name: "Food", Type: core.Expense, Subcategories: core.Subcategories{"Groceries"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateCategory(ctx, core.Category{UserID: "u1", Name: "Food", Type: core.Income}); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	// Same name for another user is fine.
	if _, err := s.CreateCategory(ctx, core.Category{UserID: "u2", Name: "Food", Type: core.Expense}); err != nil {
		t.Fatalf("other user: %v", err)
	}

	if _, err := s.FindCategory(ctx, "u1", "Food", core.Income); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("type must match exactly, got %v", err)
	}
	got, err := s.FindCategory(ctx, "u1", "Food", core.Expense)
	if err != nil || got.ID != food.ID || len(got.Subcategories) != 1 {
		t.Fatalf("find: %+v %v", got, err)
	}

	got.Subcategories = append(got.Subcategories, "Restaurants")
	upd, err := s.UpdateCategory(ctx, got)
	if err != nil || len(upd.Subcategories) != 2 {
		t.Fatalf("update: %+v %v", upd, err)
	}
	if _, err := s.GetCategory(ctx, "u2", food.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("categories are scoped by user, got %v", err)
	}
	list, err := s.ListCategories(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if _, err := s.DeleteCategory(ctx, "u1", food.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.DeleteCategory(ctx, "u1", food.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func testOrphanedBudgets(t *testing.T, s ports.Store, _ *Clock) {
	ctx := context.Background()
	cat, _ := s.CreateCategory(ctx, core.Category{UserID: "u1", Name: "Food", Type: core.Expense})
	b, err := s.CreateBudget(ctx, core.Budget{UserID: "u1", Category: "Food", Limit: core.Cents(100000), Period: core.Monthly})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := s.DeleteCategory(ctx, "u1", cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	list, err := s.ListBudgets(ctx, "u1")
	if err != nil || len(list) != 1 || list[0].ID != b.ID || list[0].Category != "Food" {
		t.Fatalf("budget should survive category delete: %v %v", list, err)
	}
}

func testAdjustSpent(t *testing.T, s ports.Store, clock *Clock) {
	ctx := context.Background()
	if _, found, err := s.AdjustBudgetSpent(ctx, "u1", "Food", 100); err != nil || found {
		t.Fatalf("no budget: found=%v err=%v", found, err)
	}
	first, _ := s.CreateBudget(ctx, core.Budget{UserID: "u1", Category: "Food", Limit: core.Cents(1000), Period: core.Monthly})
	clock.Advance(time.Second)
	second, _ := s.CreateBudget(ctx, core.Budget{UserID: "u1", Category: "Food", Limit: core.Cents(5000), Period: core.Weekly})

	b, found, err := s.AdjustBudgetSpent(ctx, "u1", "Food", 1200)
	if err != nil || !found {
		t.Fatalf("adjust: found=%v err=%v", found, err)
	}
	if b.ID != first.ID || b.Spent.Cents != 1200 {
		t.Fatalf("earliest budget should absorb the delta, got %+v", b)
	}
	b, _, _ = s.AdjustBudgetSpent(ctx, "u1", "Food", -200)
	if b.Spent.Cents != 1000 {
		t.Fatalf("spent = %d", b.Spent.Cents)
	}
	other, _ := s.GetBudget(ctx, "u1", second.ID)
	if other.Spent.Cents != 0 {
		t.Fatalf("second budget touched: %+v", other)
	}

	// Limit updates never overwrite spent.
	first.Limit = core.Cents(2000)
	first.Spent = core.Cents(0)
	upd, err := s.UpdateBudget(ctx, first)
	if err != nil || upd.Spent.Cents != 1000 || upd.Limit.Cents != 2000 {
		t.Fatalf("update: %+v %v", upd, err)
	}
	set, err := s.SetBudgetSpent(ctx, "u1", first.ID, 42)
	if err != nil || set.Spent.Cents != 42 {
		t.Fatalf("set: %+v %v", set, err)
	}
	if _, err := s.SetBudgetSpent(ctx, "u2", first.ID, 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testAdjustSpentConcurrent(t *testing.T, s ports.Store, _ *Clock) {
	ctx := context.Background()
	b, _ := s.CreateBudget(ctx, core.Budget{UserID: "u1", Category: "Food", Limit: core.Cents(1), Period: core.Monthly})

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.AdjustBudgetSpent(ctx, "u1", "Food", 25); err != nil {
				t.Errorf("adjust: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.GetBudget(ctx, "u1", b.ID)
	if got.Spent.Cents != n*25 {
		t.Fatalf("lost update: spent = %d, want %d", got.Spent.Cents, n*25)
	}
}

func testTransactions(t *testing.T, s ports.Store, clock *Clock) {
	ctx := context.Background()
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

	mk := func(typ core.TransactionType, cat string, cents int64, date time.Time) core.Transaction {
		tx, err := s.CreateTransaction(ctx, core.Transaction{
			UserID: "u1", Type: typ, Category: cat, Amount: core.Cents(cents), Date: date, Account: "Main",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return tx
	}
	jan := mk(core.Income, "Salary", 50000, day(1, 5))
	clock.Advance(time.Minute)
	feb := mk(core.Expense, "Food", 2000, day(2, 10))
	clock.Advance(time.Minute)
	mar := mk(core.Expense, "Rent", 90000, day(3, 1))

	all, err := s.ListTransactions(ctx, "u1", core.TransactionFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("list: %v %v", all, err)
	}
	if all[0].ID != mar.ID || all[2].ID != jan.ID {
		t.Fatalf("expected date descending order, got %v", all)
	}

	ranged, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{From: day(2, 1), To: day(3, 1)})
	if len(ranged) != 2 {
		t.Fatalf("range should be inclusive, got %d", len(ranged))
	}
	expenses, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{Type: core.Expense, Category: "Food"})
	if len(expenses) != 1 || expenses[0].ID != feb.ID {
		t.Fatalf("type+category filter: %v", expenses)
	}
	recent, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{CreatedSince: feb.CreatedAt})
	if len(recent) != 2 {
		t.Fatalf("created-since filter: %d", len(recent))
	}
	newest, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{Limit: 2})
	if len(newest) != 2 || newest[0].ID != mar.ID || newest[1].ID != feb.ID {
		t.Fatalf("limit should keep the newest rows: %v", newest)
	}
	if capped, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{Type: core.Expense, Limit: 10}); len(capped) != 2 {
		t.Fatalf("limit above the match count: %d", len(capped))
	}
	if other, _ := s.ListTransactions(ctx, "u2", core.TransactionFilter{}); len(other) != 0 {
		t.Fatalf("leaked across users: %v", other)
	}

	feb.Amount = core.Cents(2500)
	feb.Category = "Groceries"
	upd, err := s.UpdateTransaction(ctx, feb)
	if err != nil || upd.Amount.Cents != 2500 || upd.Category != "Groceries" {
		t.Fatalf("update: %+v %v", upd, err)
	}
	del, err := s.DeleteTransaction(ctx, "u1", feb.ID)
	if err != nil || del.Amount.Cents != 2500 {
		t.Fatalf("delete should return the removed row: %+v %v", del, err)
	}
	if _, err := s.GetTransaction(ctx, "u1", feb.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testRevokedTokens(t *testing.T, s ports.Store, clock *Clock) {
	ctx := context.Background()
	now := clock.Now()
	if err := s.RevokeToken(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := s.RevokeToken(ctx, "stale", now.Add(-time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := s.IsTokenRevoked(ctx, "live"); !ok {
		t.Fatalf("live token should be revoked")
	}
	if ok, _ := s.IsTokenRevoked(ctx, "unknown"); ok {
		t.Fatalf("unknown token reported revoked")
	}
	n, err := s.PurgeExpiredTokens(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
	if ok, _ := s.IsTokenRevoked(ctx, "live"); !ok {
		t.Fatalf("purge removed a live entry")
	}
}
