package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// TransactionValidator admits a transaction only when the user owns a
// category with exactly the same name and type.
type TransactionValidator struct {
	categories ports.CategoryStore
}

func NewTransactionValidator(categories ports.CategoryStore) *TransactionValidator {
	return &TransactionValidator{categories: categories}
}

// Validate returns a Validation error wrapping core.ErrCategoryMismatch when
// no exact (name, type) match exists. A same-named category of the other
// type does not count.
func (v *TransactionValidator) Validate(ctx context.Context, userID, category string, typ core.TransactionType) error {
	if strings.TrimSpace(category) == "" {
		return core.Validation("category is required", core.ErrEmptyCategory)
	}
	if !typ.Valid() {
		return core.Validation("", core.ErrInvalidType)
	}
	_, err := v.categories.FindCategory(ctx, userID, category, typ)
	if errors.Is(err, core.ErrNotFound) {
		return core.Validation(
			fmt.Sprintf("category %q does not exist for %s transactions", category, typ),
			core.ErrCategoryMismatch)
	}
	if err != nil {
		return core.Internal("validate category", err)
	}
	return nil
}
