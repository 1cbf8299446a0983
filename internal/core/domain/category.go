package domain

// CategoryType classifies a category as income or expense.
type CategoryType string

const (
	IncomeCategory  CategoryType = "income"
	ExpenseCategory CategoryType = "expense"
)

// Category is a node in a user's classification tree. The tree is separate from
// the chart of accounts: categories tag transactions, accounts carry balances.
// A child category must share its parent's type, and names are unique within the
// same (user, parent) pair.
type Category struct {
	CategoryID       string       `json:"categoryID"` // Primary Key (UUID)
	UserID           string       `json:"userID"`
	Name             string       `json:"name"`
	CategoryType     CategoryType `json:"categoryType"`
	Icon             string       `json:"icon"`             // Nullable
	Color            string       `json:"color"`            // Nullable, e.g. "#aabbcc"
	ParentCategoryID string       `json:"parentCategoryID"` // Empty for root categories
	AuditFields
}
