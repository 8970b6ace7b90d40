package models

import "time"

// User is an Auth API account. PasswordHash is a bcrypt hash and never
// leaves the server.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
