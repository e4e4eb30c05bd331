package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

// TransactionInput is the client-writable part of a transaction.
type TransactionInput struct {
	Amount      core.Money           `json:"amount"`
	Type        core.TransactionType `json:"type"`
	Category    string               `json:"category"`
	Subcategory string               `json:"subcategory"`
	Account     string               `json:"account"`
	Date        time.Time            `json:"date"`
	Description string               `json:"description"`
}

func (in TransactionInput) toTransaction(userID string) core.Transaction {
	return core.Transaction{
		UserID:      userID,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Subcategory: strings.TrimSpace(in.Subcategory),
		Account:     strings.TrimSpace(in.Account),
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
	}
}

// TransactionService runs each write as validate, persist, accrue. The
// steps are not wrapped in one store transaction; a crash after persist
// leaves spent stale until the next reconcile.
type TransactionService struct {
	store     ports.TransactionStore
	validator *TransactionValidator
	accrual   *AccrualEngine
	logger    *log.StructuredLogger
}

func NewTransactionService(store ports.TransactionStore, validator *TransactionValidator, accrual *AccrualEngine, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		store:     store,
		validator: validator,
		accrual:   accrual,
		logger:    log.NewStructuredLogger(log.FromSlog(logger, log.ComponentTransaction)),
	}
}

func (s *TransactionService) admit(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return core.Validation("", err)
	}
	return s.validator.Validate(ctx, t.UserID, t.Category, t.Type)
}

func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	t := in.toTransaction(userID)
	if err := s.admit(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, core.Internal("create transaction", err)
	}
	s.logger.LogTransactionWritten(ctx, log.OpCreate, created)

	if err := s.accrual.OnTransactionCreated(ctx, created); err != nil {
		s.logger.LogError(ctx, "Budget accrual failed", err, log.OpCreate, log.NewFields().WithUser(userID))
		return created, err
	}
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, storeError("transaction", err)
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, core.BadRequest("", core.ErrInvalidType)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, core.BadRequest("endDate must not be before startDate", nil)
	}
	txns, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, core.Internal("list transactions", err)
	}
	return txns, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id string, in TransactionInput) (core.Transaction, error) {
	old, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, storeError("transaction", err)
	}

	t := in.toTransaction(userID)
	t.ID = id
	if err := s.admit(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, storeError("transaction", err)
	}
	s.logger.LogTransactionWritten(ctx, log.OpUpdate, updated)

	if err := s.accrual.OnTransactionUpdated(ctx, old, updated); err != nil {
		s.logger.LogError(ctx, "Budget accrual failed", err, log.OpUpdate, log.NewFields().WithUser(userID))
		return updated, err
	}
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) (core.Transaction, error) {
	deleted, err := s.store.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, storeError("transaction", err)
	}
	s.logger.LogTransactionWritten(ctx, log.OpDelete, deleted)

	if err := s.accrual.OnTransactionDeleted(ctx, deleted); err != nil {
		s.logger.LogError(ctx, "Budget accrual failed", err, log.OpDelete, log.NewFields().WithUser(userID))
		return deleted, err
	}
	return deleted, nil
}

// storeError maps a store miss to NotFound and anything else to Internal.
func storeError(entity string, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFound(entity+" not found", err)
	}
	return core.Internal(entity, err)
}
