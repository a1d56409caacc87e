package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE:  runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

var (
	username string
	password string
	email    string
)

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
		c.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
		c.MarkFlagRequired("username")
	}
	signupCmd.Flags().StringVar(&email, "email", "", "Email address")
}

func promptPassword(cmd *cobra.Command) (string, error) {
	if password != "" {
		return password, nil
	}
	return readPassword(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: ")
}

func runLogin(cmd *cobra.Command, args []string) error {
	pw, err := promptPassword(cmd)
	if err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.session.Login(cmd.Context(), username, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", s.Username)
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	pw, err := promptPassword(cmd)
	if err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.session.Signup(cmd.Context(), username, pw, email); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account %s created. Run: cortexdesk login -u %s\n", username, username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.session.IsAuthenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
		return nil
	}
	if err := e.session.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.session.IsAuthenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), e.session.Username())
	return nil
}
