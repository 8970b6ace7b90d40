package client

import "errors"

var (
	ErrUnavailable       = errors.New("auth api unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed response")
)
