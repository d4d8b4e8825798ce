package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safedrive-io/safedrive/cmd/sdrive-companion/app/options"
	"github.com/safedrive-io/safedrive/internal/companion/credential"
)

func newCredentialsCommand(opts *options.CompanionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Disclose, rotate and render vehicle pairing credentials",
	}

	cmd.AddCommand(
		newCredentialsShowCommand(opts),
		newCredentialsRotateCommand(opts),
		newCredentialsProvisionCommand(opts),
	)
	return cmd
}

func newCredentialsShowCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <vehicle-id>",
		Short: "Fetch and print a vehicle's device key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			creds, err := core.RevealCredentials(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Vehicle:    %s\nDevice key: %s\n", creds.VehicleID, creds.DeviceKey)
			fmt.Printf("The key stays disclosed for %s.\n", credential.DisclosureWindow)
			return nil
		},
	}
}

func newCredentialsRotateCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <vehicle-id>",
		Short: "Invalidate the device key and print the replacement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			creds, err := core.RotateCredentials(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("New device key for %s: %s\n", creds.VehicleID, creds.DeviceKey)
			fmt.Println("The previous key is no longer accepted.")
			return nil
		},
	}
}

func newCredentialsProvisionCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision <vehicle-id>",
		Short: "Print the pairing payload rendered into the vehicle's QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			if _, err := core.RevealCredentials(cmd.Context(), args[0]); err != nil {
				return err
			}
			payload, err := core.Provision(args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
