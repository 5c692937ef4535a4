package domain

// User is a finance officer allowed to finalize and undo payment batches.
// User management happens elsewhere; this core only authenticates.
type User struct {
	UserID       string `json:"userID"` // Primary key (UUID)
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}
