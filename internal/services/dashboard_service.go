package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/report"
)

const recentTransactions = 10

// CategoryTotal is one category's expense total for the dashboard month.
type CategoryTotal struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

// Dashboard summarizes the current calendar month.
type Dashboard struct {
	Month      string              `json:"month"`
	Currency   string              `json:"currency"`
	Converted  bool                `json:"converted"`
	Income     core.Money          `json:"income"`
	Expenses   core.Money          `json:"expenses"`
	Balance    core.Money          `json:"balance"`
	Categories []CategoryTotal     `json:"categories"`
	Budgets    []core.BudgetStatus `json:"budgets"`
	Recent     []core.Transaction  `json:"recentTransactions"`
}

type DashboardService struct {
	txns           ports.TransactionStore
	budgets        ports.BudgetStore
	converter      ports.Converter
	baseCurrency   string
	convertTimeout time.Duration
	parallelism    int
	now            func() time.Time
	logger         *slog.Logger
}

func NewDashboardService(txns ports.TransactionStore, budgets ports.BudgetStore, converter ports.Converter, cfg ReportServiceConfig, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "USD"
	}
	if cfg.ConvertTimeout <= 0 {
		cfg.ConvertTimeout = 5 * time.Second
	}
	return &DashboardService{
		txns:           txns,
		budgets:        budgets,
		converter:      converter,
		baseCurrency:   strings.ToUpper(cfg.BaseCurrency),
		convertTimeout: cfg.ConvertTimeout,
		parallelism:    4,
		now:            time.Now,
		logger:         logger.With(log.FieldComponent, log.ComponentReport),
	}
}

// monthBounds returns the first and last instant of t's month in UTC.
func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// Get builds the dashboard. A non-empty currency converts every monetary
// figure, one category per goroutine; any conversion failure falls back to
// the base currency for the whole dashboard.
func (s *DashboardService) Get(ctx context.Context, userID, currency string) (Dashboard, error) {
	from, to := monthBounds(s.now())

	monthTxns, err := s.txns.ListTransactions(ctx, userID, core.TransactionFilter{From: from, To: to})
	if err != nil {
		return Dashboard{}, core.Internal("list transactions", err)
	}
	recent, err := s.txns.ListTransactions(ctx, userID, core.TransactionFilter{Limit: recentTransactions})
	if err != nil {
		return Dashboard{}, core.Internal("list transactions", err)
	}
	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return Dashboard{}, core.Internal("list budgets", err)
	}

	chronological(monthTxns)
	r := report.Build(monthTxns)
	d := Dashboard{
		Month:      from.Format("2006-01"),
		Currency:   s.baseCurrency,
		Income:     r.TotalIncome,
		Expenses:   r.TotalExpenses,
		Balance:    r.NetIncome(),
		Categories: make([]CategoryTotal, len(r.ExpenseCategories.Labels)),
		Budgets:    make([]core.BudgetStatus, len(budgets)),
		Recent:     recent,
	}
	for i, label := range r.ExpenseCategories.Labels {
		d.Categories[i] = CategoryTotal{Category: label, Amount: r.ExpenseCategories.Values[i]}
	}
	for i, b := range budgets {
		d.Budgets[i] = b.Status()
	}

	return s.convert(ctx, d, currency), nil
}

func (s *DashboardService) convert(ctx context.Context, d Dashboard, target string) Dashboard {
	target = strings.ToUpper(strings.TrimSpace(target))
	if s.converter == nil || target == "" || target == d.Currency {
		return d
	}

	ctx, cancel := context.WithTimeout(ctx, s.convertTimeout)
	defer cancel()

	out := d
	out.Categories = make([]CategoryTotal, len(d.Categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	cv := func(dst *core.Money, src core.Money) {
		g.Go(func() error {
			m, err := s.converter.Convert(gctx, src, d.Currency, target)
			if err != nil {
				return err
			}
			*dst = m
			return nil
		})
	}
	for i, c := range d.Categories {
		out.Categories[i].Category = c.Category
		cv(&out.Categories[i].Amount, c.Amount)
	}
	cv(&out.Income, d.Income)
	cv(&out.Expenses, d.Expenses)
	cv(&out.Balance, d.Balance)

	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "Currency conversion failed, serving base currency",
			log.FieldOperation, log.OpConvert,
			log.FieldCurrency, target,
			log.FieldError, err.Error())
		return d
	}
	out.Currency = target
	out.Converted = true
	return out
}
