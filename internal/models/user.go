package models

import "time"

// user roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is platform account entity.
// Balance is spendable wallet balance in whole currency units, it is mutated
// only through the balance repository atomic increment/decrement.
type User struct {
	ID           uint64
	Login        string
	PasswordHash string
	DisplayName  string
	Phone        string
	Role         string
	Balance      int64
	CreatedAt    time.Time
}

// TokenPayload is authorization token payload
type TokenPayload struct {
	UserID uint64
	Role   string
}
