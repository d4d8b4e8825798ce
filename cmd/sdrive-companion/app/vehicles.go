package app

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/safedrive-io/safedrive/cmd/sdrive-companion/app/options"
	"github.com/safedrive-io/safedrive/internal/companion/sensor"
)

func newVehiclesCommand(opts *options.CompanionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List and manage registered vehicles",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			active := ""
			if v := core.ActiveVehicle(); v != nil {
				active = v.VehicleID
			}

			table := uitable.New()
			table.AddRow("VEHICLE ID", "NAME", "PLATE", "ACTIVE")
			for _, v := range core.Vehicles() {
				mark := ""
				if v.VehicleID == active {
					mark = "*"
				}
				table.AddRow(v.VehicleID, v.Name, v.PlateNumber, mark)
			}
			fmt.Println(table)
			return nil
		},
	}

	cmd.AddCommand(
		newVehiclesAddCommand(opts),
		newVehiclesRemoveCommand(opts),
		newVehiclesSwitchCommand(opts),
		newVehiclesCalibrateCommand(opts),
	)
	return cmd
}

func newVehiclesAddCommand(opts *options.CompanionOptions) *cobra.Command {
	var name, plate string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new vehicle unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || plate == "" {
				return fmt.Errorf("both --name and --plate are required")
			}

			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			v, err := core.AddVehicle(cmd.Context(), name, plate)
			if err != nil {
				return err
			}
			fmt.Printf("Registered vehicle %s (%s)\n", v.Name, v.VehicleID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the vehicle.")
	cmd.Flags().StringVar(&plate, "plate", "", "Plate number of the vehicle.")
	return cmd
}

func newVehiclesRemoveCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a registered vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}
			if err := core.DeleteVehicle(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Vehicle removed")
			return nil
		},
	}
}

func newVehiclesCalibrateCommand(opts *options.CompanionOptions) *cobra.Command {
	t := sensor.DefaultThresholds()

	cmd := &cobra.Command{
		Use:   "calibrate <vehicle-id>",
		Short: "Upload adjusted classification thresholds to a vehicle unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}
			if err := core.UploadCalibration(cmd.Context(), args[0], t); err != nil {
				return err
			}
			fmt.Printf("Calibration uploaded to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().Float64Var(&t.AlcoholSafe, "alcohol-safe", t.AlcoholSafe, "Upper bound of the safe alcohol range.")
	cmd.Flags().Float64Var(&t.AlcoholWarning, "alcohol-warning", t.AlcoholWarning, "Upper bound of the warning alcohol range.")
	cmd.Flags().Float64Var(&t.ClearanceSafe, "clearance-safe", t.ClearanceSafe, "Minimum clearance in cm for a safe reading.")
	cmd.Flags().Float64Var(&t.ClearanceWarning, "clearance-warning", t.ClearanceWarning, "Minimum clearance in cm before danger.")
	cmd.Flags().Float64Var(&t.ImpactTrigger, "impact-trigger", t.ImpactTrigger, "Acceleration magnitude that raises an impact alert.")
	return cmd
}

func newVehiclesSwitchCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <vehicle-id>",
		Short: "Make another vehicle the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}
			if err := core.SwitchVehicle(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Active vehicle is now %s\n", args[0])
			return nil
		},
	}
}
