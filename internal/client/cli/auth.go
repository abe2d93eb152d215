package cli

import (
	"context"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getPasswordPrompt = GetPasswordPrompt

// Login prompts for credentials and signs in through the gateway. The
// session store observes the resulting auth event, so the guard opens up
// without any extra plumbing here.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	sess, err := a.gw.Auth().SignInWithPassword(ctx, email, string(password))
	if err != nil {
		printlnFn("Login failed:", err.Error())
		return err
	}

	printlnFn("Signed in as", sess.User.Email)
	return nil
}

// Logout revokes the session and clears the local cache.
func (a *App) Logout(ctx context.Context) error {
	if err := a.gw.Auth().SignOut(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	printlnFn("Signed out.")
	return nil
}

// WhoAmI prints the current session owner.
func (a *App) WhoAmI(ctx context.Context) error {
	sess := a.sessions.Current()
	if sess == nil {
		printlnFn("Not signed in.")
		return nil
	}
	printlnFn("Signed in as", sess.User.Email)
	if name, ok := sess.User.UserMetadata["full_name"].(string); ok && name != "" {
		printlnFn("Name:", name)
	}
	return nil
}
