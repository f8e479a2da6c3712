package models

import "time"

// User represents a row in the users table.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash *string   `json:"-"` // nil for accounts created before passwords existed
	CreatedAt    time.Time `json:"created_at"`
}

// IsLegacy reports whether the account predates password support.
func (u *User) IsLegacy() bool {
	return u.PasswordHash == nil || *u.PasswordHash == ""
}

// PublicUser is the {id, username} projection used by lookup and delete.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{ID: u.ID, Username: u.Username}
}

// LoginRequest is the JSON body for POST /users.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /users for both registration and login.
type LoginResponse struct {
	Message   string `json:"message"`
	User      *User  `json:"user"`
	IsNewUser bool   `json:"isNewUser"`
}

// LookupResponse is returned by GET /users/{username}.
type LookupResponse struct {
	Exists bool        `json:"exists"`
	User   *PublicUser `json:"user"`
}

// DeleteUserResponse is returned by DELETE /users/{username}.
type DeleteUserResponse struct {
	Message string      `json:"message"`
	User    *PublicUser `json:"user"`
}
