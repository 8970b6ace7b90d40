// Package client talks to the Auth API on behalf of the session manager.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface): Login,
//     CreateAccount, CheckAuth, Ping and Close.
//  2. An HTTP implementation (see HTTPClient) posting JSON to
//     /api/login, /api/createAccount and /api/checkAuth.
//  3. A gRPC health probe (see GRPCHealthChecker) used by Ping to drive the
//     CLI's online indicator.
//
// # Error Handling
//
// Failures are reported as sentinel errors that callers match with errors.Is:
// ErrUnavailable, ErrUnauthorized, ErrUnexpectedStatus, ErrMalformedResponse.
// The original cause stays in the chain for logging.
//
// All operations accept a context.Context and honor cancellation and deadlines.
// No call is retried.
package client
