// Package auth handles user accounts, session management, and password
// security for sheepdiary. It provides registration, login, logout, and
// session validation via opaque tokens stored in Redis.
//
// There is deliberately no JWT issuance here: the mobile client holds an
// opaque session token (cookie or Authorization header) and every request
// is validated against Redis, so revocation is immediate.
package auth

import (
	"time"
)

// User represents a registered sheepdiary user. This is the domain model used
// throughout the application. Database scanning and JSON marshaling use this
// struct directly.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	Gender       *string   `json:"gender,omitempty"`
	Age          *int      `json:"age,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted on sign-up.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Password string  `json:"password"`
	Gender   *string `json:"gender,omitempty"`
	Age      *int    `json:"age,omitempty"`
}

// LoginRequest holds the data submitted on login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a new user.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Gender   *string
	Age      *int
}

// LoginInput is the validated input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// --- Session ---

// Session represents an authenticated user session stored in Redis.
// The session token is the key, and this struct is the value (JSON-encoded).
type Session struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
