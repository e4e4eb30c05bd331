// Package memory is an in-process entity store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Store keeps every collection in insertion order behind one mutex, which
// makes AdjustBudgetSpent atomic with respect to other writers.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	users   []core.User
	cats    []core.Category
	budgets []core.Budget
	txns    []core.Transaction
	revoked map[string]time.Time
}

func New() *Store {
	return &Store{now: time.Now, revoked: map[string]time.Time{}}
}

// WithClock replaces the time source used for timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) stamp() time.Time { return s.now().UTC() }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func missing(what string) error {
	return fmt.Errorf("%s: %w", what, core.ErrNotFound)
}

// Users

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, x := range s.users {
		if x.Email == u.Email {
			return core.User{}, core.ErrEmailTaken
		}
	}
	u.ID = newID(u.ID)
	u.CreatedAt = s.stamp()
	u.UpdatedAt = u.CreatedAt
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, missing("get user")
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, missing("get user by email")
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	idx := -1
	for i, x := range s.users {
		if x.ID == u.ID {
			idx = i
		} else if x.Email == u.Email {
			return core.User{}, core.ErrEmailTaken
		}
	}
	if idx < 0 {
		return core.User{}, missing("update user")
	}
	cur := &s.users[idx]
	cur.Name, cur.Email, cur.PasswordHash = u.Name, u.Email, u.PasswordHash
	cur.UpdatedAt = s.stamp()
	return *cur, nil
}

// Categories

func cloneCategory(c core.Category) core.Category {
	c.Subcategories = append(core.Subcategories{}, c.Subcategories...)
	return c
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.cats {
		if x.UserID == c.UserID && x.Name == c.Name {
			return core.Category{}, core.ErrDuplicateCategory
		}
	}
	c.ID = newID(c.ID)
	c.CreatedAt = s.stamp()
	c.UpdatedAt = c.CreatedAt
	c = cloneCategory(c)
	s.cats = append(s.cats, c)
	return cloneCategory(c), nil
}

func (s *Store) findCategory(match func(core.Category) bool) (int, bool) {
	for i, c := range s.cats {
		if match(c) {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) GetCategory(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findCategory(func(c core.Category) bool { return c.UserID == userID && c.ID == id }); ok {
		return cloneCategory(s.cats[i]), nil
	}
	return core.Category{}, missing("get category")
}

func (s *Store) FindCategory(_ context.Context, userID, name string, typ core.TransactionType) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findCategory(func(c core.Category) bool {
		return c.UserID == userID && c.Name == name && c.Type == typ
	}); ok {
		return cloneCategory(s.cats[i]), nil
	}
	return core.Category{}, missing("find category")
}

func (s *Store) GetCategoryByName(_ context.Context, userID, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findCategory(func(c core.Category) bool { return c.UserID == userID && c.Name == name }); ok {
		return cloneCategory(s.cats[i]), nil
	}
	return core.Category{}, missing("get category by name")
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Category{}
	for _, c := range s.cats {
		if c.UserID == userID {
			out = append(out, cloneCategory(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, x := range s.cats {
		if x.UserID != c.UserID {
			continue
		}
		if x.ID == c.ID {
			idx = i
		} else if x.Name == c.Name {
			return core.Category{}, core.ErrDuplicateCategory
		}
	}
	if idx < 0 {
		return core.Category{}, missing("update category")
	}
	cur := &s.cats[idx]
	cur.Name, cur.Type = c.Name, c.Type
	cur.Subcategories = append(core.Subcategories{}, c.Subcategories...)
	cur.UpdatedAt = s.stamp()
	return cloneCategory(*cur), nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findCategory(func(c core.Category) bool { return c.UserID == userID && c.ID == id })
	if !ok {
		return core.Category{}, missing("delete category")
	}
	c := s.cats[i]
	s.cats = append(s.cats[:i], s.cats[i+1:]...)
	return c, nil
}

// Budgets

func (s *Store) budgetIndex(userID, id string) int {
	for i, b := range s.budgets {
		if b.UserID == userID && b.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = newID(b.ID)
	b.CreatedAt = s.stamp()
	b.UpdatedAt = b.CreatedAt
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.budgetIndex(userID, id); i >= 0 {
		return s.budgets[i], nil
	}
	return core.Budget{}, missing("get budget")
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Budget{}
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(b.UserID, b.ID)
	if i < 0 {
		return core.Budget{}, missing("update budget")
	}
	cur := &s.budgets[i]
	cur.Category, cur.Limit, cur.Period = b.Category, b.Limit, b.Period
	cur.UpdatedAt = s.stamp()
	return *cur, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(userID, id)
	if i < 0 {
		return core.Budget{}, missing("delete budget")
	}
	b := s.budgets[i]
	s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
	return b, nil
}

// AdjustBudgetSpent updates the first budget inserted for the category.
func (s *Store) AdjustBudgetSpent(_ context.Context, userID, category string, delta int64) (core.Budget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		b := &s.budgets[i]
		if b.UserID == userID && b.Category == category {
			b.Spent.Cents += delta
			b.UpdatedAt = s.stamp()
			return *b, true, nil
		}
	}
	return core.Budget{}, false, nil
}

func (s *Store) SetBudgetSpent(_ context.Context, userID, id string, spent int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(userID, id)
	if i < 0 {
		return core.Budget{}, missing("set budget spent")
	}
	s.budgets[i].Spent.Cents = spent
	s.budgets[i].UpdatedAt = s.stamp()
	return s.budgets[i], nil
}

// Transactions

func (s *Store) txnIndex(userID, id string) int {
	for i, t := range s.txns {
		if t.UserID == userID && t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newID(t.ID)
	t.Date = t.Date.UTC()
	t.CreatedAt = s.stamp()
	t.UpdatedAt = t.CreatedAt
	s.txns = append(s.txns, t)
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.txnIndex(userID, id); i >= 0 {
		return s.txns[i], nil
	}
	return core.Transaction{}, missing("get transaction")
}

func matches(t core.Transaction, f core.TransactionFilter) bool {
	switch {
	case !f.From.IsZero() && t.Date.Before(f.From):
		return false
	case !f.To.IsZero() && t.Date.After(f.To):
		return false
	case f.Type != "" && t.Type != f.Type:
		return false
	case f.Category != "" && t.Category != f.Category:
		return false
	case !f.CreatedSince.IsZero() && t.CreatedAt.Before(f.CreatedSince):
		return false
	}
	return true
}

func (s *Store) ListTransactions(_ context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Transaction{}
	for _, t := range s.txns {
		if t.UserID == userID && matches(t, f) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txnIndex(t.UserID, t.ID)
	if i < 0 {
		return core.Transaction{}, missing("update transaction")
	}
	cur := &s.txns[i]
	cur.Amount, cur.Type, cur.Category, cur.Subcategory = t.Amount, t.Type, t.Category, t.Subcategory
	cur.Account, cur.Date, cur.Description = t.Account, t.Date.UTC(), t.Description
	cur.UpdatedAt = s.stamp()
	return *cur, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txnIndex(userID, id)
	if i < 0 {
		return core.Transaction{}, missing("delete transaction")
	}
	t := s.txns[i]
	s.txns = append(s.txns[:i], s.txns[i+1:]...)
	return t, nil
}

// Revoked tokens

func (s *Store) RevokeToken(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = expiresAt
	return nil
}

func (s *Store) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[jti]
	return ok && exp.After(s.now()), nil
}

func (s *Store) PurgeExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for jti, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, jti)
			n++
		}
	}
	return n, nil
}
