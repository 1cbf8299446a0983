package mapping

import (
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/pfinbooks/bookkeeper_app/internal/models"
)

// ToModelRecurring converts a domain template to its DB row.
func ToModelRecurring(d domain.Recurring) models.Recurring {
	return models.Recurring{
		RecurringID: d.RecurringID,
		UserID:      d.UserID,
		Name:        d.Name,
		TxnType:     string(d.Type),
		Description: d.Description,
		Frequency:   string(d.Frequency),
		Interval:    d.Interval,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		NextDate:    d.NextDate,
		LastDate:    d.LastDate,
		CategoryID:  d.CategoryID,
		IsActive:    d.IsActive,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// ToDomainRecurring converts a recurring row back to the domain type.
func ToDomainRecurring(m models.Recurring) domain.Recurring {
	return domain.Recurring{
		RecurringID: m.RecurringID,
		UserID:      m.UserID,
		Name:        m.Name,
		Type:        domain.TransactionType(m.TxnType),
		Description: m.Description,
		Frequency:   domain.Frequency(m.Frequency),
		Interval:    m.Interval,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		NextDate:    m.NextDate,
		LastDate:    m.LastDate,
		CategoryID:  m.CategoryID,
		IsActive:    m.IsActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// ToModelRecurringLine converts a domain template line to its DB row.
func ToModelRecurringLine(d domain.RecurringLine) models.RecurringLine {
	return models.RecurringLine{
		LineID:      d.LineID,
		RecurringID: d.RecurringID,
		AccountID:   d.AccountID,
		LineType:    string(d.LineType),
		Amount:      d.Amount,
		Description: d.Description,
	}
}

// ToDomainRecurringLine converts a recurring_lines row back to the domain type.
func ToDomainRecurringLine(m models.RecurringLine) domain.RecurringLine {
	return domain.RecurringLine{
		LineID:      m.LineID,
		RecurringID: m.RecurringID,
		AccountID:   m.AccountID,
		LineType:    domain.LineType(m.LineType),
		Amount:      m.Amount,
		Description: m.Description,
	}
}
