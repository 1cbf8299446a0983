package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineType indicates whether a transaction line is a Debit or a Credit.
type LineType string

const (
	Debit  LineType = "DEBIT"
	Credit LineType = "CREDIT"
)

// TransactionType labels the economic nature of a transaction header.
type TransactionType string

const (
	IncomeTransaction     TransactionType = "income"
	ExpenseTransaction    TransactionType = "expense"
	TransferTransaction   TransactionType = "transfer"
	AdjustmentTransaction TransactionType = "adjustment"
)

// Transaction is the header of a balanced double-entry event. It owns an ordered
// set of TransactionLines; a posted transaction always satisfies
// sum(DEBIT amounts) == sum(CREDIT amounts) exactly, with at least two lines.
type Transaction struct {
	TransactionID string          `json:"transactionID"` // Primary Key (UUID)
	UserID        string          `json:"userID"`
	Date          time.Time       `json:"date"` // Date the event occurred
	Type          TransactionType `json:"type"`
	Number        string          `json:"number"`      // Optional user-facing number
	Description   string          `json:"description"` // Nullable
	Reference     string          `json:"reference"`   // Nullable
	Notes         string          `json:"notes"`       // Nullable
	CategoryID    string          `json:"categoryID"`  // Optional classification tag
	RecurringID   string          `json:"recurringID"` // Set when generated from a template
	IsPosted      bool            `json:"isPosted"`
	Lines         []TransactionLine `json:"lines,omitempty"` // Often loaded separately
	AuditFields
}

// TransactionLine is a single debit or credit against one account.
type TransactionLine struct {
	LineID        string          `json:"lineID"` // Primary Key (UUID)
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	LineType      LineType        `json:"lineType"`
	Amount        decimal.Decimal `json:"amount"` // Non-negative, 2 fraction digits
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"createdAt"`
}
