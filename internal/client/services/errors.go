package services

import (
	"errors"
	"fmt"
)

// ErrAuthFailed is the generic failure of a credential exchange. The more
// specific errors below match it with errors.Is.
var ErrAuthFailed = errors.New("authentication failed")

var (
	ErrLoginFailed           = fmt.Errorf("%w: login failed", ErrAuthFailed)
	ErrAccountCreationFailed = fmt.Errorf("%w: account creation failed", ErrAuthFailed)
)

var (
	ErrNoToken           = errors.New("no stored token")
	ErrInvalidExpiration = errors.New("invalid stored token expiration")
)
