package dto

import (
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionLineRequest is one debit or credit of a new transaction.
type CreateTransactionLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	LineType    domain.LineType `json:"lineType" binding:"required,oneof=DEBIT CREDIT"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// CreateTransactionRequest defines the data needed to post a transaction.
type CreateTransactionRequest struct {
	Date        time.Time                      `json:"date" binding:"required"`
	Type        domain.TransactionType         `json:"type" binding:"required,oneof=income expense transfer adjustment"`
	Description string                         `json:"description"`
	Reference   string                         `json:"reference" binding:"max=100"`
	Notes       string                         `json:"notes"`
	CategoryID  string                         `json:"categoryID"`
	RecurringID string                         `json:"-"` // Set internally by the recurring generator
	Lines       []CreateTransactionLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// TransactionLineResponse is the wire shape of a transaction line.
type TransactionLineResponse struct {
	LineID      string          `json:"lineID"`
	AccountID   string          `json:"accountID"`
	LineType    domain.LineType `json:"lineType"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// TransactionResponse is the wire shape of a transaction with its lines.
type TransactionResponse struct {
	TransactionID string                    `json:"transactionID"`
	Date          time.Time                 `json:"date"`
	Type          domain.TransactionType    `json:"type"`
	Number        string                    `json:"number"`
	Description   string                    `json:"description"`
	Reference     string                    `json:"reference"`
	Notes         string                    `json:"notes"`
	CategoryID    string                    `json:"categoryID"`
	RecurringID   string                    `json:"recurringID"`
	IsPosted      bool                      `json:"isPosted"`
	Lines         []TransactionLineResponse `json:"lines"`
	CreatedAt     time.Time                 `json:"createdAt"`
}

// ToTransactionResponse converts a domain transaction (lines included) to its DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	lines := make([]TransactionLineResponse, len(txn.Lines))
	for i, line := range txn.Lines {
		lines[i] = TransactionLineResponse{
			LineID:      line.LineID,
			AccountID:   line.AccountID,
			LineType:    line.LineType,
			Amount:      line.Amount,
			Description: line.Description,
		}
	}
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		Date:          txn.Date,
		Type:          txn.Type,
		Number:        txn.Number,
		Description:   txn.Description,
		Reference:     txn.Reference,
		Notes:         txn.Notes,
		CategoryID:    txn.CategoryID,
		RecurringID:   txn.RecurringID,
		IsPosted:      txn.IsPosted,
		Lines:         lines,
		CreatedAt:     txn.CreatedAt,
	}
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	DateFrom   *time.Time              `form:"dateFrom" time_format:"2006-01-02"`
	DateTo     *time.Time              `form:"dateTo" time_format:"2006-01-02"`
	AccountID  string                  `form:"accountID"`
	CategoryID string                  `form:"categoryID"`
	Type       *domain.TransactionType `form:"type"`
	Limit      int                     `form:"limit,default=20"`
	NextToken  *string                 `form:"nextToken"`
}

// ListTransactionsResponse wraps a page of transactions and the cursor for the
// next page.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}
