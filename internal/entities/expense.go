package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/mkaraca/dukkan/internal/engine"
)

// Expense is money the business spent, in minor currency units.
type Expense struct {
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
	Category    string    `json:"category"`
	IncurredAt  time.Time `json:"incurredAt"`
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return errors.New("expense description is required")
	}
	if e.Amount <= 0 {
		return errors.New("expense amount must be positive")
	}
	if e.IncurredAt.IsZero() {
		return errors.New("expense date is required")
	}
	return nil
}

// Expenses describes the expense kind.
func Expenses() engine.Kind[Expense] {
	return engine.Kind[Expense]{
		Name:       "expenses",
		SearchText: func(e Expense) string { return e.Description },
		Category:   func(e Expense) string { return e.Category },
	}
}
