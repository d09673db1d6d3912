package domain

import "time"

// Роли учётных записей
const (
	RoleUser     = "user"
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// User — учётная запись для входа в систему.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

func NewUser(username, passwordHash, role string) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
}
