// login.go implements the "chimeractl login", "register", "logout" and
// "whoami" commands.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	session "github.com/goliatone/go-console-session"
	"github.com/spf13/cobra"
)

var (
	loginUsername      string
	loginPassword      string
	loginPasswordStdin bool
	loginSkipOrgs      bool

	registerEmail string
	registerPhone string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session in the profile",
	Long: `Login exchanges username and password for a session token, stores
token and profile in the local store and loads the organizations the user
belongs to. The organization context of the profile is kept.`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a console account",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and purge the profile session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the session of the profile",
	RunE:  runWhoami,
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, registerCmd} {
		cmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Account username")
		cmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password")
		cmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	}
	loginCmd.Flags().BoolVar(&loginSkipOrgs, "skip-orgs", false, "Do not load organization memberships")

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerPhone, "phone", "", "Account phone")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	handler := session.NewLoginHandler(app.API(), app.store).
		WithLogger(app.GetLogger("session:login")).
		WithActivitySink(app.activitySink())
	if loginSkipOrgs || !app.cfg.GetAuth().GetLoadMemberships() {
		handler.WithoutMemberships()
	}

	if err := handler.Execute(cmd.Context(), session.LoginMessage{
		Username: loginUsername,
		Password: password,
	}); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return app.render(newSessionView(app.profile, app.store.Snapshot()))
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	err = session.NewRegisterUserHandler(app.API()).
		WithLogger(app.GetLogger("session:register")).
		WithActivitySink(app.activitySink()).
		Execute(cmd.Context(), session.RegisterUserMessage{
			Username: loginUsername,
			Email:    registerEmail,
			Phone:    registerPhone,
			Password: password,
		})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Account %s created, sign in with chimeractl login -u %s\n", loginUsername, loginUsername)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !app.store.IsAuthenticated() {
		fmt.Fprintf(cmd.OutOrStdout(), "Profile %s is not signed in\n", app.profile)
		return nil
	}

	if err := app.logoutHandler().Execute(cmd.Context(), session.LogoutMessage{}); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Profile %s signed out\n", app.profile)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	return app.render(newSessionView(app.profile, app.store.Snapshot()))
}

// sessionView is the printable form of a snapshot. The token itself is
// never printed, only its expiration when the claims carry one.
type sessionView struct {
	Profile       string              `json:"profile" yaml:"profile"`
	Authenticated bool                `json:"authenticated" yaml:"authenticated"`
	PlatformAdmin bool                `json:"platform_admin" yaml:"platform_admin"`
	Username      string              `json:"username,omitempty" yaml:"username,omitempty"`
	UserID        string              `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Role          string              `json:"role,omitempty" yaml:"role,omitempty"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Context       session.OrgContext  `json:"context" yaml:"context"`
	Orgs          []session.OrgRecord `json:"orgs,omitempty" yaml:"orgs,omitempty"`
}

func newSessionView(profile string, snap session.Snapshot) sessionView {
	view := sessionView{
		Profile:       profile,
		Authenticated: snap.Authenticated,
		PlatformAdmin: snap.IsPlatformAdmin,
		Username:      snap.Profile.Username(),
		UserID:        snap.Profile.UserID(),
		Role:          snap.Profile.Role(),
		Context:       snap.Context,
		Orgs:          snap.AvailableOrgs,
	}

	if claims, err := session.ParseTokenClaims(snap.Token); err == nil {
		if exp := claims.Expires(); !exp.IsZero() {
			view.ExpiresAt = &exp
		}
	}

	return view
}

func readPassword(cmd *cobra.Command) (string, error) {
	if loginPassword != "" {
		return loginPassword, nil
	}

	if !loginPasswordStdin {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	}
	return readLine(cmd.Context(), cmd.InOrStdin())
}

func readLine(ctx context.Context, in io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
