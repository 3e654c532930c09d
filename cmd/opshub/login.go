package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opshub/console/internal/api/account"
	"github.com/opshub/console/internal/app"
	"github.com/opshub/console/internal/credential"
)

type loginOptions struct {
	username      string
	password      string
	passwordStdin bool
}

func newLoginCmd(o *rootOptions) *cobra.Command {
	lo := &loginOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend and store the token",
		Long: `Exchanges a username and password for a bearer token and keeps it in the
local store. The password is prompted for when not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				return runLogin(ctx, cmd, a, lo)
			})
		},
	}
	cmd.Flags().StringVarP(&lo.username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&lo.password, "password", "p", "", "Password (prefer the prompt or --password-stdin)")
	cmd.Flags().BoolVar(&lo.passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func runLogin(ctx context.Context, cmd *cobra.Command, a *app.App, lo *loginOptions) error {
	in := bufio.NewReader(cmd.InOrStdin())
	w := out(cmd)

	if lo.username == "" {
		fmt.Fprint(w, "Username: ")
		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read username: %w", err)
		}
		lo.username = strings.TrimSpace(line)
	}

	password := lo.password
	switch {
	case lo.passwordStdin:
		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	case password == "":
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return fmt.Errorf("no terminal for the password prompt, use --password-stdin")
		}
		fmt.Fprint(w, "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	fmt.Fprintf(w, "Authenticating with %s...\n", a.Config.Server)
	session, err := a.Account.Login(ctx, account.Credentials{Username: lo.username, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := a.Credentials.SetToken(ctx, session.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	name := session.Username
	if name == "" {
		name = lo.username
	}
	fmt.Fprintf(w, "Logged in as %s\n", name)
	return nil
}

func newLogoutCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Credentials.Clear(ctx); err != nil {
					return fmt.Errorf("failed to remove token: %w", err)
				}
				fmt.Fprintln(out(cmd), "Logged out. Credentials removed.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				token, err := a.Credentials.Token(ctx)
				if err != nil {
					return err
				}
				if token == "" {
					return fmt.Errorf("not logged in (run 'opshub login' first)")
				}
				claims, err := credential.Inspect(token)
				if err != nil {
					return fmt.Errorf("stored token is unreadable: %w", err)
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), claims)
				}

				w := out(cmd)
				fmt.Fprintf(w, "User:     %s\n", claims.Username)
				fmt.Fprintf(w, "Server:   %s\n", a.Config.Server)
				if !claims.ExpiresAt.IsZero() {
					state := "valid"
					if claims.Expired(time.Now()) {
						state = "expired"
					}
					fmt.Fprintf(w, "Expires:  %s (%s)\n", claims.ExpiresAt.Format(time.RFC3339), state)
				}
				return nil
			})
		},
	}
}
