package models

// User is the users table row.
type User struct {
	UserID       string `db:"user_id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	FullName     string `db:"full_name"`
	IsActive     bool   `db:"is_active"`
	AuditFields
}
