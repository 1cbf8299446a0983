package mapping

import (
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/pfinbooks/bookkeeper_app/internal/models"
)

// ToModelTransaction converts a domain transaction header to its DB row.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID: d.TransactionID,
		UserID:        d.UserID,
		TxnDate:       d.Date,
		TxnType:       string(d.Type),
		Number:        d.Number,
		Description:   d.Description,
		Reference:     d.Reference,
		Notes:         d.Notes,
		CategoryID:    d.CategoryID,
		RecurringID:   d.RecurringID,
		IsPosted:      d.IsPosted,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// ToDomainTransaction converts a transactions row back to the domain type.
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		Date:          m.TxnDate,
		Type:          domain.TransactionType(m.TxnType),
		Number:        m.Number,
		Description:   m.Description,
		Reference:     m.Reference,
		Notes:         m.Notes,
		CategoryID:    m.CategoryID,
		RecurringID:   m.RecurringID,
		IsPosted:      m.IsPosted,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// ToModelTransactionLine converts a domain line to its DB row.
func ToModelTransactionLine(d domain.TransactionLine) models.TransactionLine {
	return models.TransactionLine{
		LineID:        d.LineID,
		TransactionID: d.TransactionID,
		AccountID:     d.AccountID,
		LineType:      string(d.LineType),
		Amount:        d.Amount,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt,
	}
}

// ToDomainTransactionLine converts a transaction_lines row back to the domain type.
func ToDomainTransactionLine(m models.TransactionLine) domain.TransactionLine {
	return domain.TransactionLine{
		LineID:        m.LineID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		LineType:      domain.LineType(m.LineType),
		Amount:        m.Amount,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
}
