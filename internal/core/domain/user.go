package domain

// User owns a chart of accounts, categories, transactions, recurring templates
// and budgets. All directory and ledger operations are scoped to one user.
type User struct {
	UserID       string `json:"userID"` // Primary Key (UUID)
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // bcrypt hash, never serialized
	FullName     string `json:"fullName"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}
