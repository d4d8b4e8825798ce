package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/safedrive-io/safedrive/cmd/sdrive-companion/app/options"
	"github.com/safedrive-io/safedrive/pkg/log"
)

const (
	commandName = "sdrive-companion"
	commandDesc = `The SafeDrive companion keeps a consistent local view of a remote
vehicle's safety state: it merges the live telemetry stream with the
authorization workflow, enforces role-gated visibility, and exposes the
reconciled state to dashboards on this host.`
)

// NewCompanionCommand builds the root command with all subcommands.
func NewCompanionCommand() *cobra.Command {
	opts := options.NewCompanionOptions()
	var cfgFile string

	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Run the SafeDrive vehicle companion",
		Long:          commandDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfgFile, opts); err != nil {
				return err
			}
			log.Init(opts.Log)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file.")
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRunCommand(opts),
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newVehiclesCommand(opts),
		newMembersCommand(opts),
		newRequestCommand(opts),
		newCredentialsCommand(opts),
	)

	return cmd
}

// loadConfig layers the config file under the flag values and keeps
// watching it so a level change lands without a restart.
func loadConfig(cfgFile string, opts *options.CompanionOptions) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(filepath.Join(home, ".safedrive"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil // Defaults and flags only
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := viper.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		if err := viper.Unmarshal(opts); err != nil {
			log.Error(err, "Ignoring malformed config change", "file", e.Name)
			return
		}
		if err := log.SetLevel(opts.Log.Level); err != nil {
			log.Error(err, "Ignoring invalid log level from config change")
			return
		}
		log.Info("Configuration reloaded", "file", e.Name, "logLevel", opts.Log.Level)
	})
	viper.WatchConfig()

	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (ctx context.Context, cancel context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
