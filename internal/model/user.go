package model

import "time"

// Role separates aspirants from academy staff.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User represents an academy account (aspirant or administrator).
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	City         string    `json:"city"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	// Universities lists the university codes this user may simulate.
	// Admins implicitly have access to all of them.
	Universities []string  `json:"universities"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasUniversityAccess reports whether the user may enter the given
// university's simulator.
func (u *User) HasUniversityAccess(code string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	for _, c := range u.Universities {
		if c == code {
			return true
		}
	}
	return false
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=4,max=72"`
}
