package models

// User is the profile the Auth API returns for an authenticated session.
// The session manager stores it as-is and never inspects it.
type User struct {
	Email string `json:"email"`
}
