// Package authapi defines the JSON bodies exchanged with the Auth API.
package authapi

// User is the public profile returned by every successful call.
type User struct {
	Email string `json:"email"`
}

// CredentialsRequest is the body of POST /api/login and /api/createAccount.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by /api/login and /api/createAccount.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CheckAuthRequest is the body of POST /api/checkAuth.
type CheckAuthRequest struct {
	Token string `json:"token"`
}

// CheckAuthResponse is returned by /api/checkAuth.
type CheckAuthResponse struct {
	User User `json:"user"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
