package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the planning backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}

		password := loginPassword
		if password == "" {
			if password, err = readPassword(cmd.InOrStdin(), os.Stderr); err != nil {
				return err
			}
		}

		res, err := a.client.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(res.User)
		}
		fmt.Printf("Logged in as %s\n", res.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		a.session.Clear()
		if !jsonOutput {
			fmt.Println("Logged out")
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		h, err := a.client.Health(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(h)
		}
		fmt.Printf("%s %s (%s)\n", a.client.BaseURL(), h.Status, h.Timestamp)
		if u := a.session.User(); u != nil {
			fmt.Printf("Logged in as %s\n", u.Username)
		} else {
			fmt.Println("Not logged in")
		}
		if !h.OK() {
			return fmt.Errorf("backend reports %q", h.Status)
		}
		return nil
	},
}

// readPassword prompts on out. A terminal on in reads without echo; piped
// input is read as one line.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted on stdin when empty)")
}
