// Package ports declares the collaborators the finance services depend on.
package ports

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Stores. Every lookup is scoped by userID; a miss returns core.ErrNotFound.
type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, userID, id string) (core.Category, error)
		// FindCategory matches name and type exactly.
		FindCategory(ctx context.Context, userID, name string, typ core.TransactionType) (core.Category, error)
		GetCategoryByName(ctx context.Context, userID, name string) (core.Category, error)
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, userID, id string) (core.Category, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		// UpdateBudget writes limit, period and category. Spent is left untouched.
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id string) (core.Budget, error)
		// AdjustBudgetSpent atomically adds delta to the spent of the earliest
		// budget for (userID, category). found is false when no budget exists.
		AdjustBudgetSpent(ctx context.Context, userID, category string, delta int64) (b core.Budget, found bool, err error)
		// SetBudgetSpent overwrites spent. Only reconciliation may call it.
		SetBudgetSpent(ctx context.Context, userID, id string, spent int64) (core.Budget, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		// ListTransactions returns matches ordered by date descending.
		ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	}

	// TokenRevocationStore keeps revoked token ids until they would have
	// expired anyway.
	TokenRevocationStore interface {
		RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
		IsTokenRevoked(ctx context.Context, jti string) (bool, error)
		PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Store is everything a backend provides.
	Store interface {
		UserStore
		CategoryStore
		BudgetStore
		TransactionStore
		TokenRevocationStore
		Pinger
	}
)

// Outbound collaborators.
type (
	Notifier interface {
		Send(ctx context.Context, to, subject, body string) error
	}

	// Converter converts an amount between ISO currency codes.
	Converter interface {
		Convert(ctx context.Context, amount core.Money, from, to string) (core.Money, error)
	}

	// ReportSink receives a monthly report table, one row per bucket.
	ReportSink interface {
		WriteReport(ctx context.Context, title string, rows [][]any) error
	}
)
