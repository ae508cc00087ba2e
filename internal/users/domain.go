package users

import (
	"time"

	"github.com/appbox-io/appbox/internal/security"
)

// User represents an account.
type User struct {
	ID           int64
	Email        string
	Nickname     string
	PasswordHash string
	Role         security.Role
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Roles returns the raw role claims embedded in issued credentials.
func (u *User) Roles() []string {
	return []string{string(u.Role)}
}
