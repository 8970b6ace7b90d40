// Package common contains shared constants, sentinel errors and small helpers
// used by both the sessionkeeper client and the Auth API server.
package common

// Keys of the persisted token record in the client's local key-value store.
const (
	TokenKey           = "jwtToken"
	TokenExpirationKey = "jwtTokenExpiration"
)

// Auth API routes. Both sides of the wire use these paths.
const (
	LoginPath         = "/api/login"
	CreateAccountPath = "/api/createAccount"
	CheckAuthPath     = "/api/checkAuth"
)

// RequestIDHeaderName carries a per-request correlation ID from the client to
// the Auth API so both sides can log the same identifier.
const RequestIDHeaderName = "X-Request-ID"
