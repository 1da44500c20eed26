package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/moviex/internal/auth"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/urfave/cli/v3"
)

// localizedError replaces a field error with its message in l, keeping the sentinel for errors.Is.
func localizedError(err error, l locale.Locale) error {
	var fe *auth.FieldError
	if errors.As(err, &fe) {
		return fmt.Errorf("%s: %w", fe.Message(l), fe.Err)
	}
	return err
}

// SignUp creates an account from the command flags.
func (r *Runner) SignUp(ctx context.Context, cmd *cli.Command) error {
	accounts, err := r.accountService()
	if err != nil {
		return err
	}

	l := r.localeFrom(cmd)
	form := auth.SignUpForm{
		UserID:   cmd.String("userid"),
		Email:    cmd.String("email"),
		Name:     cmd.String("name"),
		Password: cmd.String("password"),
		Confirm:  cmd.String("confirm"),
	}

	p, err := accounts.SignUp(ctx, form)
	if err != nil {
		var fe *auth.FieldError
		if errors.As(err, &fe) {
			return localizedError(err, l)
		}
		return errors.New(locale.T(l, locale.KeySignUpFailed, err.Error()))
	}

	return r.writePlain("✓ %s (%s)\n", locale.T(l, locale.KeySignUpSuccess), p.UserID)
}

// Login authenticates and persists the session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	accounts, err := r.accountService()
	if err != nil {
		return err
	}

	l := r.localeFrom(cmd)
	sess, err := accounts.Login(ctx, cmd.String("userid"), cmd.String("password"))
	if err != nil {
		return localizedError(err, l)
	}

	return r.writePlain("✓ Logged in as %s (%s)\n", sess.User.Name, sess.User.UserID)
}

// Logout revokes the stored session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	accounts, err := r.accountService()
	if err != nil {
		return err
	}
	if err := accounts.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// WhoAmI restores the session and prints the current user with the provider it was resolved from.
func (r *Runner) WhoAmI(ctx context.Context, cmd *cli.Command) error {
	accounts, err := r.accountService()
	if err != nil {
		return err
	}

	p, err := accounts.Hydrate(ctx)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.writePlain("Not logged in\n")
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(p, true)
	}
	r.writePlain("Name:     %s\n", p.Name)
	r.writePlain("User ID:  %s\n", p.UserID)
	r.writePlain("Email:    %s\n", p.Email)
	return r.writePlain("Provider: %s\n", p.Provider)
}
