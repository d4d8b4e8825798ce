package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safedrive-io/safedrive/cmd/sdrive-companion/app/options"
	"github.com/safedrive-io/safedrive/internal/companion/state"
	"github.com/safedrive-io/safedrive/pkg/log"
)

func newLoginCommand(opts *options.CompanionOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("both --email and --password are required")
			}

			cfg, err := opts.Config()
			if err != nil {
				return err
			}

			core := cfg.NewCore(log.Std())
			if err := core.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			fmt.Printf("Signed in as %s (%s context)\n", core.User().Name, core.Role())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address.")
	cmd.Flags().StringVar(&password, "password", "", "Account password.")
	return cmd
}

func newRegisterCommand(opts *options.CompanionOptions) *cobra.Command {
	var name, email, phone, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" || phone == "" || password == "" {
				return fmt.Errorf("--name, --email, --phone and --password are all required")
			}

			cfg, err := opts.Config()
			if err != nil {
				return err
			}

			if err := cfg.NewCore(log.Std()).Register(cmd.Context(), name, email, phone, password); err != nil {
				return err
			}
			fmt.Printf("Account created, run '%s login' to sign in\n", commandName)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the account.")
	cmd.Flags().StringVar(&email, "email", "", "Account email address.")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number members use to find you.")
	cmd.Flags().StringVar(&password, "password", "", "Account password.")
	return cmd
}

func newLogoutCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the persisted session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}

			if err := cfg.NewCore(log.Std()).Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

// restoredCore builds a core and resumes the saved session, failing
// when none exists. Shared by the non-daemon subcommands.
func restoredCore(cmd *cobra.Command, opts *options.CompanionOptions) (*state.Core, error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, err
	}

	core := cfg.NewCore(log.Std())
	if err := core.Bootstrap(cmd.Context()); err != nil {
		return nil, err
	}
	if !core.SignedIn() {
		return nil, fmt.Errorf("not signed in, run '%s login' first", commandName)
	}
	return core, nil
}
