// Package cli provides the interactive sessionkeeper command-line client.
//
// The App owns the session manager, the way a web page owns its auth store:
// on start it restores the persisted session with CheckAuth, starts a
// background connectivity watcher, and then runs a small REPL.
//
// Commands:
//   - register / login   prompt for credentials and sign in
//   - logout             drop the session and the stored token
//   - status             show who is signed in and whether the server is up
//   - check              revalidate the stored token with the server
//   - exit | quit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
