package services

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// BudgetInput is the client-writable part of a budget. Spent is accepted
// only so that its presence can be rejected.
type BudgetInput struct {
	Category string            `json:"category"`
	Limit    core.Money        `json:"limit"`
	Period   core.BudgetPeriod `json:"period"`
	Spent    *core.Money       `json:"spent,omitempty"`
}

// BudgetPatch carries optional fields for an update.
type BudgetPatch struct {
	Category *string            `json:"category,omitempty"`
	Limit    *core.Money        `json:"limit,omitempty"`
	Period   *core.BudgetPeriod `json:"period,omitempty"`
	Spent    *core.Money        `json:"spent,omitempty"`
}

type BudgetService struct {
	budgets ports.BudgetStore
	txns    ports.TransactionStore
	logger  *slog.Logger
}

func NewBudgetService(budgets ports.BudgetStore, txns ports.TransactionStore, logger *slog.Logger) *BudgetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetService{budgets: budgets, txns: txns, logger: logger}
}

// Create starts the budget at zero spent, whatever the client sent.
func (s *BudgetService) Create(ctx context.Context, userID string, in BudgetInput) (core.Budget, error) {
	if in.Spent != nil && in.Spent.Cents != 0 {
		return core.Budget{}, core.Validation("", core.ErrSpentNotWritable)
	}
	b := core.Budget{
		UserID:   userID,
		Category: strings.TrimSpace(in.Category),
		Limit:    in.Limit,
		Period:   in.Period,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, core.Validation("", err)
	}
	created, err := s.budgets.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, core.Internal("create budget", err)
	}
	return created, nil
}

func (s *BudgetService) Get(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := s.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, storeError("budget", err)
	}
	return b, nil
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	out, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, core.Internal("list budgets", err)
	}
	return out, nil
}

// Update rejects any attempt to write spent.
func (s *BudgetService) Update(ctx context.Context, userID, id string, p BudgetPatch) (core.Budget, error) {
	if p.Spent != nil {
		return core.Budget{}, core.Validation("", core.ErrSpentNotWritable)
	}
	b, err := s.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, storeError("budget", err)
	}
	if p.Category != nil {
		b.Category = strings.TrimSpace(*p.Category)
	}
	if p.Limit != nil {
		b.Limit = *p.Limit
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, core.Validation("", err)
	}
	updated, err := s.budgets.UpdateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, storeError("budget", err)
	}
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := s.budgets.DeleteBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, storeError("budget", err)
	}
	return b, nil
}

// Check reports every budget against its limit. It never notifies; alerts
// are raised only by the accrual path.
func (s *BudgetService) Check(ctx context.Context, userID string) ([]core.BudgetStatus, error) {
	budgets, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, b.Status())
	}
	return out, nil
}

// ReconcileResult describes one budget whose spent was recomputed.
type ReconcileResult struct {
	Budget   core.Budget `json:"budget"`
	Previous core.Money  `json:"previous"`
	Changed  bool        `json:"changed"`
}

// Reconcile recomputes spent from the expense transactions created since
// the budget was, and writes back any drift. Only the earliest budget of a
// category accrues, so later duplicates are reported as they are.
func (s *BudgetService) Reconcile(ctx context.Context, userID string) ([]ReconcileResult, error) {
	budgets, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ReconcileResult, 0, len(budgets))
	seen := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		if seen[b.Category] {
			out = append(out, ReconcileResult{Budget: b, Previous: b.Spent})
			continue
		}
		seen[b.Category] = true

		txns, err := s.txns.ListTransactions(ctx, userID, core.TransactionFilter{
			Type:         core.Expense,
			Category:     b.Category,
			CreatedSince: b.CreatedAt,
		})
		if err != nil {
			return nil, core.Internal("list transactions for reconcile", err)
		}
		var sum int64
		for _, t := range txns {
			sum += t.Amount.Cents
		}

		res := ReconcileResult{Budget: b, Previous: b.Spent}
		if sum != b.Spent.Cents {
			updated, err := s.budgets.SetBudgetSpent(ctx, userID, b.ID, sum)
			if err != nil {
				return nil, storeError("budget", err)
			}
			res.Budget, res.Changed = updated, true
			s.logger.WarnContext(ctx, "Budget spent drift corrected",
				log.NewFields().
					WithComponent(log.ComponentAccrual).
					WithOperation(log.OpReconcile).
					WithUser(userID).
					WithBudget(b.ID, b.Category, sum, b.Limit.Cents).
					ToSlice()...)
		}
		out = append(out, res)
	}
	return out, nil
}
