package models

import "time"

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Role            Role       `json:"role"`
	PasswordHash    string     `json:"-"`
	ResetCode       string     `json:"-"`
	ResetCodeExpiry *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HasPendingReset reports whether a password-reset code is waiting to be verified.
func (u User) HasPendingReset() bool {
	return u.ResetCode != "" && u.ResetCodeExpiry != nil
}

// PublicUser is the projection of a User returned to clients.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Public strips credentials and reset state from u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
