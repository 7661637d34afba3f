package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taxbase/metricshub/session"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Destroy the current session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	a.store.Restore()
	target := a.store.Logout()

	if target.Kind == session.RedirectExternalHub {
		fmt.Printf("Logged out, continue at %s\n", target.HubURL)
	} else {
		fmt.Println("Logged out")
	}
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	current, err := a.requireSession()
	if err != nil {
		return err
	}

	fmt.Printf("Username: %s\n", current.User.Username)
	if current.User.DisplayName != "" {
		fmt.Printf("Name:     %s\n", current.User.DisplayName)
	}
	fmt.Printf("Role:     %s\n", current.User.Role)
	fmt.Printf("Origin:   %s\n", current.Origin)
	return nil
}
