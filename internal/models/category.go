package models

// Category is the categories table row.
type Category struct {
	CategoryID       string `db:"category_id"`
	UserID           string `db:"user_id"`
	Name             string `db:"name"`
	CategoryType     string `db:"category_type"`
	Icon             string `db:"icon"`
	Color            string `db:"color"`
	ParentCategoryID string `db:"parent_category_id"` // Nullable
	AuditFields
}
