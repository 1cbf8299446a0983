package dto

import (
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateRecurringLineRequest is one template line of a new recurring template.
type CreateRecurringLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	LineType    domain.LineType `json:"lineType" binding:"required,oneof=DEBIT CREDIT"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// CreateRecurringRequest defines the data needed to create a recurring template.
type CreateRecurringRequest struct {
	Name        string                       `json:"name" binding:"required,max=255"`
	Type        domain.TransactionType       `json:"type" binding:"required,oneof=income expense transfer adjustment"`
	Description string                       `json:"description"`
	Frequency   domain.Frequency             `json:"frequency" binding:"required,oneof=daily weekly monthly yearly"`
	Interval    int                          `json:"interval" binding:"required,min=1"`
	StartDate   time.Time                    `json:"startDate" binding:"required" time_format:"2006-01-02"`
	EndDate     *time.Time                   `json:"endDate" time_format:"2006-01-02"`
	CategoryID  string                       `json:"categoryID"`
	Lines       []CreateRecurringLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateRecurringRequest defines updatable template fields. Lines, when
// provided, replace the template's lines wholesale.
type UpdateRecurringRequest struct {
	Name        *string                      `json:"name"`
	Description *string                      `json:"description"`
	Frequency   *domain.Frequency            `json:"frequency" binding:"omitempty,oneof=daily weekly monthly yearly"`
	Interval    *int                         `json:"interval" binding:"omitempty,min=1"`
	EndDate     *time.Time                   `json:"endDate" time_format:"2006-01-02"`
	CategoryID  *string                      `json:"categoryID"`
	IsActive    *bool                        `json:"isActive"`
	Lines       []CreateRecurringLineRequest `json:"lines" binding:"omitempty,min=2,dive"`
}

// RecurringLineResponse is the wire shape of a template line.
type RecurringLineResponse struct {
	LineID      string          `json:"lineID"`
	AccountID   string          `json:"accountID"`
	LineType    domain.LineType `json:"lineType"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// RecurringResponse is the wire shape of a recurring template.
type RecurringResponse struct {
	RecurringID string                  `json:"recurringID"`
	Name        string                  `json:"name"`
	Type        domain.TransactionType  `json:"type"`
	Description string                  `json:"description"`
	Frequency   domain.Frequency        `json:"frequency"`
	Interval    int                     `json:"interval"`
	StartDate   time.Time               `json:"startDate"`
	EndDate     *time.Time              `json:"endDate"`
	NextDate    time.Time               `json:"nextDate"`
	LastDate    *time.Time              `json:"lastDate"`
	CategoryID  string                  `json:"categoryID"`
	IsActive    bool                    `json:"isActive"`
	Lines       []RecurringLineResponse `json:"lines"`
}

// ToRecurringResponse converts a domain template (lines included) to its DTO.
func ToRecurringResponse(rec *domain.Recurring) RecurringResponse {
	lines := make([]RecurringLineResponse, len(rec.Lines))
	for i, line := range rec.Lines {
		lines[i] = RecurringLineResponse{
			LineID:      line.LineID,
			AccountID:   line.AccountID,
			LineType:    line.LineType,
			Amount:      line.Amount,
			Description: line.Description,
		}
	}
	return RecurringResponse{
		RecurringID: rec.RecurringID,
		Name:        rec.Name,
		Type:        rec.Type,
		Description: rec.Description,
		Frequency:   rec.Frequency,
		Interval:    rec.Interval,
		StartDate:   rec.StartDate,
		EndDate:     rec.EndDate,
		NextDate:    rec.NextDate,
		LastDate:    rec.LastDate,
		CategoryID:  rec.CategoryID,
		IsActive:    rec.IsActive,
		Lines:       lines,
	}
}

// ListRecurringParams defines query parameters for listing templates.
type ListRecurringParams struct {
	OnlyActive bool `form:"onlyActive"`
	Limit      int  `form:"limit,default=50"`
	Offset     int  `form:"offset,default=0"`
}

// TickFailure records one template the generator had to skip and why.
type TickFailure struct {
	RecurringID string `json:"recurringID"`
	Name        string `json:"name"`
	Reason      string `json:"reason"`
}

// TickResult summarizes one generation run.
type TickResult struct {
	AsOf                  time.Time     `json:"asOf"`
	GeneratedTransactions []string      `json:"generatedTransactions"` // Transaction ids
	Failures              []TickFailure `json:"failures"`
}
