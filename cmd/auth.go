package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ytsubs/internal/shared"
)

// AuthLogin exchanges a username and password for a session token and saves it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	username := cmd.String("username")
	r.logger.Info("logging in", "username", username, "backend", r.api.BaseURL())

	session, err := r.api.Login(ctx, username, cmd.String("password"))
	if err != nil {
		return err
	}

	if err := shared.SaveSession(r.config.Session.Path, session); err != nil {
		return err
	}
	r.SetTokens(oauth2.StaticTokenSource(session.Token))

	r.logger.Info("session saved", "path", r.config.Session.Path)
	r.writePlain("✓ Logged in as %s\n", session.Username)
	if !session.Token.Expiry.IsZero() {
		r.writePlain("Session expires: %s\n", session.Token.Expiry.Format(time.RFC1123))
	}
	return nil
}

// AuthImport saves the session token carried by a cURL command copied from the browser.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var req *shared.CurlRequest
	var err error

	if curlFile != "" {
		req, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		req, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	token, err := req.SessionToken()
	if err != nil {
		return err
	}

	session := shared.NewSession("", token, time.Time{})
	if err := shared.SaveSession(r.config.Session.Path, session); err != nil {
		return err
	}
	r.SetTokens(oauth2.StaticTokenSource(session.Token))

	r.writePlain("✓ Session imported\n")
	r.writePlain("Saved to: %s\n", r.config.Session.Path)
	if base := req.BaseURL(); base != "" && r.api != nil && base != r.api.BaseURL() {
		r.writePlainln("Note: the cURL command targets %s but backend.base_url is %s", base, r.api.BaseURL())
	}
	return nil
}

// AuthStatus checks backend health and reports whether a usable session is saved.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	r.logger.Info("checking auth status")

	if err := r.api.Health(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	r.writePlain("✓ Backend is healthy (%s)\n", r.api.BaseURL())

	session, err := shared.LoadSession(r.config.Session.Path)
	switch {
	case errors.Is(err, shared.ErrNoSession):
		return r.writePlain("Session: ✗ Not logged in\n")
	case err != nil:
		return err
	case !session.Token.Valid():
		return r.writePlain("Session: ✗ Expired at %s\n", session.Token.Expiry.Format(time.RFC1123))
	}

	who := session.Username
	if who == "" {
		who = "imported session"
	}
	r.writePlain("Session: ✓ %s\n", who)
	if !session.Token.Expiry.IsZero() {
		r.writePlain("Expires: %s\n", session.Token.Expiry.Format(time.RFC1123))
	}
	return nil
}

// AuthLogout removes the saved session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := shared.ClearSession(r.config.Session.Path); err != nil {
		return err
	}
	r.SetTokens(nil)
	return r.writePlain("✓ Logged out\n")
}
