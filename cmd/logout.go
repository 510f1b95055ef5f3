package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/auth"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved sign-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := auth.SignOutFile(cfg.Auth.TokenPath); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		fmt.Println("Signed out.")
		return nil
	},
}
