package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the unit of a recurring template's schedule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Recurring is a template that the generator materializes into transactions.
// Its lines are the unposted twin of a transaction's lines and must satisfy the
// same balance invariant at generation time.
type Recurring struct {
	RecurringID string          `json:"recurringID"` // Primary Key (UUID)
	UserID      string          `json:"userID"`
	Name        string          `json:"name"`
	Type        TransactionType `json:"type"` // Type stamped on generated transactions
	Description string          `json:"description"`
	Frequency   Frequency       `json:"frequency"`
	Interval    int             `json:"interval"` // >= 1
	StartDate   time.Time       `json:"startDate"`
	EndDate     *time.Time      `json:"endDate"`  // Nil for open-ended templates
	NextDate    time.Time       `json:"nextDate"` // Next generation due date
	LastDate    *time.Time      `json:"lastDate"` // Last generated date, nil before first run
	CategoryID  string          `json:"categoryID"`
	IsActive    bool            `json:"isActive"`
	Lines       []RecurringLine `json:"lines,omitempty"`
	AuditFields
}

// RecurringLine is a template line: one debit or credit against an account.
type RecurringLine struct {
	LineID      string          `json:"lineID"` // Primary Key (UUID)
	RecurringID string          `json:"recurringID"`
	AccountID   string          `json:"accountID"`
	LineType    LineType        `json:"lineType"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ScheduleAdvance records the schedule transition applied when a template is
// generated. FromNextDate is the due date the caller observed; persisting the
// advance is guarded on it so two generators cannot both advance one template.
type ScheduleAdvance struct {
	RecurringID  string
	FromNextDate time.Time
	LastDate     time.Time
	NextDate     time.Time
	IsActive     bool
}

// NextOccurrence advances a schedule date by interval units of frequency.
// Monthly and yearly advances clamp the day-of-month to the target month's last
// day, so a Jan 31 monthly schedule lands on Feb 29 in a leap year rather than
// rolling into March.
func NextOccurrence(cur time.Time, freq Frequency, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch freq {
	case Daily:
		return cur.AddDate(0, 0, interval)
	case Weekly:
		return cur.AddDate(0, 0, interval*7)
	case Monthly:
		return addMonthsClamped(cur, interval)
	case Yearly:
		return addMonthsClamped(cur, interval*12)
	default:
		return cur.AddDate(0, 0, interval)
	}
}

// addMonthsClamped adds months without time.AddDate's day overflow: the result
// day is min(original day, last day of the target month).
func addMonthsClamped(cur time.Time, months int) time.Time {
	// Normalize to the first of the month, add, then clamp the day.
	firstOfTarget := time.Date(cur.Year(), cur.Month(), 1, cur.Hour(), cur.Minute(), cur.Second(), cur.Nanosecond(), cur.Location()).AddDate(0, months, 0)
	lastDay := daysIn(firstOfTarget.Year(), firstOfTarget.Month())
	day := cur.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, cur.Hour(), cur.Minute(), cur.Second(), cur.Nanosecond(), cur.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
