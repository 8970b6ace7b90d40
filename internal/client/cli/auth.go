package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errEmptyEmail = errors.New("email must not be empty")

func (a *App) readCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	if email == "" {
		return "", nil, errEmptyEmail
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register prompts for an email and password and creates an account, which
// also signs the user in.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.CreateAccount(ctx, email, string(password)); err != nil {
		fmt.Fprintln(a.out, "Registration failed.")
		return err
	}

	fmt.Fprintf(a.out, "Account created, signed in as %s\n", email)
	return nil
}

// Login prompts for credentials and signs in. The server's reason for a
// rejection is logged, not shown.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		fmt.Fprintln(a.out, "Login failed.")
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

// Status prints the session and connectivity state.
func (a *App) Status(ctx context.Context) error {
	st := a.session.State()
	if st.IsAuthenticated && st.User != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", st.User.Email)
	} else {
		fmt.Fprintln(a.out, "Not signed in.")
	}

	mode := a.Mode()
	if mode == "" {
		mode = "unknown"
	}
	fmt.Fprintf(a.out, "Server: %s\n", mode)
	return nil
}

// Check revalidates the stored session with the server and prints the result.
func (a *App) Check(ctx context.Context) error {
	a.session.CheckAuth(ctx)
	return a.Status(ctx)
}
