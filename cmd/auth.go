package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wouldwatch/internal/auth"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

// credentials reads --email/--password, prompting for whatever is missing.
func (r *Runner) credentials(ctx context.Context, cmd *cli.Command, title string) (string, string, error) {
	email := strings.TrimSpace(cmd.String("email"))
	password := cmd.String("password")
	if email != "" && password != "" {
		return email, password, nil
	}

	e, p, err := r.prompt.Credentials(ctx, title)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", shared.ErrMissingArgument, err)
	}
	if email == "" {
		email = e
	}
	if password == "" {
		password = p
	}
	return email, password, nil
}

// authResult turns a sign-in or sign-up [auth.Result] into output or an error.
//
// Provider messages are surfaced verbatim; anything else is reported as unexpected.
func (r *Runner) authResult(res auth.Result, verb string) error {
	if res.Err != nil {
		var perr *auth.ProviderError
		if errors.As(res.Err, &perr) {
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, perr.Message)
		}
		r.logger.Error(verb+" failed", "error", res.Err)
		return fmt.Errorf("%w: An unexpected error occurred", shared.ErrUnexpected)
	}

	if res.ConfirmationPending {
		email := ""
		if res.User != nil {
			email = res.User.Email
		}
		return r.writePlain("✓ Account created for %s\nCheck your email to confirm your account, then run 'ww auth login'.\n", email)
	}

	return r.writePlain("✓ Signed in as %s\n", res.User.Email)
}

// AuthLogin signs in with email and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.mount(ctx); err != nil {
		return err
	}

	email, password, err := r.credentials(ctx, cmd, "Welcome back")
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email)
	return r.authResult(r.auth.SignIn(ctx, email, password), "sign in")
}

// AuthSignUp creates an account with email and password.
func (r *Runner) AuthSignUp(ctx context.Context, cmd *cli.Command) error {
	if err := r.mount(ctx); err != nil {
		return err
	}

	email, password, err := r.credentials(ctx, cmd, "Create your account")
	if err != nil {
		return err
	}

	r.logger.Info("signing up", "email", email)
	return r.authResult(r.auth.SignUp(ctx, email, password), "sign up")
}

// AuthOAuth opens the provider's sign-in page and waits for the loopback callback to complete.
func (r *Runner) AuthOAuth(ctx context.Context, cmd *cli.Command) error {
	if err := r.mount(ctx); err != nil {
		return err
	}

	signedIn := make(chan *auth.User, 1)
	unsubscribe := r.auth.Subscribe(func(event auth.Event, user *auth.User) {
		if event == auth.EventSignedIn && user != nil {
			select {
			case signedIn <- user:
			default:
			}
		}
	})
	defer unsubscribe()

	authURL, err := r.auth.SignInWithOAuth(ctx, cmd.String("provider"))
	if err != nil {
		var perr *auth.ProviderError
		if errors.As(err, &perr) {
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, perr.Message)
		}
		return fmt.Errorf("%w: failed to start browser sign-in: %w", shared.ErrAuthFailed, err)
	}

	r.writePlain("Opening your browser to sign in. If it does not open, visit:\n%s\n\n", authURL)
	r.writePlain("Waiting for sign-in to complete...\n")

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	select {
	case u := <-signedIn:
		return r.writePlain("✓ Signed in as %s\n", u.Email)
	case <-time.After(timeout):
		return fmt.Errorf("%w: timed out waiting for browser sign-in", shared.ErrAuthFailed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthLogout signs out. A failed remote logout is logged but the local session is gone either way.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.mount(ctx); err != nil {
		return err
	}

	if r.auth.User() == nil {
		return r.writePlain("Not signed in\n")
	}

	r.auth.SignOut(ctx)
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus shows the signed-in user.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.mount(ctx); err != nil {
		return err
	}

	u := r.auth.User()
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"signed_in": u != nil, "user": u}, true)
	}

	if u == nil {
		return r.writePlain("✗ Not signed in\nRun 'ww auth login' to sign in.\n")
	}
	r.writePlain("✓ Signed in\n")
	r.writePlain("Email: %s\n", u.Email)
	return r.writePlain("ID:    %s\n", u.ID)
}
