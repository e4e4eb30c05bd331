package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Weekly  BudgetPeriod = "weekly"
	Monthly BudgetPeriod = "monthly"
	Yearly  BudgetPeriod = "yearly"
)

type (
	TransactionType string

	BudgetPeriod string

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	Category struct {
		ID            string          `json:"id"`
		UserID        string          `json:"userId"`
		Name          string          `json:"name"`
		Type          TransactionType `json:"type"`
		Subcategories Subcategories   `json:"subcategories"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	// Budget tracks expense spending for a category name. Spent is owned
	// by the accrual engine and is never taken from client input.
	Budget struct {
		ID        string       `json:"id"`
		UserID    string       `json:"userId"`
		Category  string       `json:"category"`
		Limit     Money        `json:"limit"`
		Spent     Money        `json:"spent"`
		Period    BudgetPeriod `json:"period"`
		CreatedAt time.Time    `json:"createdAt"`
		UpdatedAt time.Time    `json:"updatedAt"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Subcategory string          `json:"subcategory,omitempty"`
		Account     string          `json:"account"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// TransactionFilter narrows a user's transaction listing. Zero values
	// disable the corresponding predicate; From and To are inclusive.
	TransactionFilter struct {
		From     time.Time
		To       time.Time
		Type     TransactionType
		Category string
		// CreatedSince restricts to rows created at or after the instant.
		CreatedSince time.Time
		// Limit caps the newest-first result; zero means no cap.
		Limit int
	}

	// BudgetStatus is the point-in-time view of a budget against its limit.
	BudgetStatus struct {
		Budget    Budget `json:"budget"`
		Remaining Money  `json:"remaining"`
		Exceeded  bool   `json:"exceeded"`
	}
)

var (
	ErrInvalidType        = errors.New("type must be income or expense")
	ErrInvalidPeriod      = errors.New("period must be weekly, monthly or yearly")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p BudgetPeriod) Valid() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Validate checks field-level constraints only. Whether the category exists
// for the user is the transaction validator's job.
func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Description) > 500 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

// Exceeded reports whether spending has gone strictly past the limit.
func (b Budget) Exceeded() bool {
	return b.Spent.Cents > b.Limit.Cents
}

func (b Budget) Status() BudgetStatus {
	return BudgetStatus{
		Budget:    b,
		Remaining: Money{Cents: b.Limit.Cents - b.Spent.Cents},
		Exceeded:  b.Exceeded(),
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	at := strings.Index(u.Email, "@")
	if at < 1 || at == len(u.Email)-1 || strings.ContainsAny(u.Email, " \t\n") {
		return ErrInvalidEmail
	}
	return nil
}

// SignedCents returns the amount as it affects a balance: expenses negative.
func (t Transaction) SignedCents() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}
