package domain

import "github.com/shopspring/decimal"

// BudgetLine is a named allocation with a running balance against which
// finalized payments are debited in USD. The finalization engine is the sole
// mutator of Balance and Spend.
type BudgetLine struct {
	BudgetLineID string          `json:"budgetLineID"` // Primary key (UUID)
	Name         string          `json:"name"`
	Allocated    decimal.Decimal `json:"allocated"`
	Spend        decimal.Decimal `json:"spend"`   // Cumulative USD spend
	Balance      decimal.Decimal `json:"balance"` // Running balance (balCD); overdraft allowed
	AuditFields
}

// BudgetDelta reports the balance movement produced by one atomic debit.
type BudgetDelta struct {
	BudgetLineID    string          `json:"budgetLineID"`
	Name            string          `json:"name"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
	PreviousSpend   decimal.Decimal `json:"previousSpend"`
	NewSpend        decimal.Decimal `json:"newSpend"`
}
