package domain

import (
	"errors"
	"time"
)

// Identity models a registered user account. The password digest never
// leaves the process boundary in API responses.
type Identity struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var ErrUserExists = errors.New("username or email already exists")
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidCredentials is returned for every authentication failure:
// unknown identifier, wrong password, or an unreadable stored digest.
// Callers must not be able to tell which one occurred.
var ErrInvalidCredentials = errors.New("invalid credentials")
