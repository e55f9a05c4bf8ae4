package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giygas/slim-api/config"
	"github.com/giygas/slim-api/validation"
)

func newCreateAdminCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator, or promote an existing account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := validation.NewDataValidator()
			if err := v.ValidateEmail(email); err != nil {
				return err
			}
			if err := v.ValidatePassword(password); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			authService, err := newAuthService(st, cfg)
			if err != nil {
				return err
			}
			u, err := authService.CreateAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "administrator %s ready (id %s)\n", u.Email, u.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password (at least 8 characters)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
