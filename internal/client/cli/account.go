package cli

import (
	"context"
	"os"

	"github.com/dkurbatov/catalogkeeper/internal/gateway"
)

// Profile updates the admin's display name in the account metadata.
func (a *App) Profile(ctx context.Context) error {
	sess := a.sessions.Current()
	if sess == nil {
		printlnFn("Not signed in.")
		return nil
	}
	printlnFn("Email:", sess.User.Email)

	name, err := getSimpleText(a.reader, "Full name", os.Stdout)
	if err != nil {
		return err
	}
	if name == "" {
		printlnFn("Name is required")
		return nil
	}

	if _, err := a.gw.Auth().UpdateUser(ctx, gateway.UserAttributes{
		Data: map[string]any{"full_name": name},
	}); err != nil {
		printlnFn("Profile update failed:", err.Error())
		return err
	}
	printlnFn("Profile updated successfully")
	return nil
}

// Password changes the account password. The current password is verified
// with a fresh sign-in before the change is sent.
func (a *App) Password(ctx context.Context) error {
	sess := a.sessions.Current()
	if sess == nil || sess.User.Email == "" {
		printlnFn("No email available for this account.")
		return nil
	}

	current, err := getPasswordPrompt("Current password", os.Stdout)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		printlnFn("Current password is required")
		return nil
	}

	newPass, err := getPasswordPrompt("New password", os.Stdout)
	if err != nil {
		return err
	}
	if len(newPass) < 8 {
		printlnFn("Password must be at least 8 characters")
		return nil
	}

	confirm, err := getPasswordPrompt("Confirm password", os.Stdout)
	if err != nil {
		return err
	}
	if string(newPass) != string(confirm) {
		printlnFn("Passwords do not match")
		return nil
	}

	if _, err := a.gw.Auth().SignInWithPassword(ctx, sess.User.Email, string(current)); err != nil {
		printlnFn("Password change failed:", err.Error())
		return err
	}

	if _, err := a.gw.Auth().UpdateUser(ctx, gateway.UserAttributes{Password: string(newPass)}); err != nil {
		printlnFn("Password change failed:", err.Error())
		return err
	}
	printlnFn("Password updated successfully")
	return nil
}
