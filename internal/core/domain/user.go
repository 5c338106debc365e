package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        uint64
	Name      string
	Email     string
	Password  string
	Role      Role
	CreatedAt time.Time
}

// Identity is a verified (user, role) pair handed over by the token layer.
type Identity struct {
	UserID uint64
	Role   Role
}
