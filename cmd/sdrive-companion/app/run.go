package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safedrive-io/safedrive/cmd/sdrive-companion/app/options"
	"github.com/safedrive-io/safedrive/pkg/log"
)

func newRunCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the companion daemon (push stream + local observer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			return cfg.NewCompanion(log.Std()).Run(ctx)
		},
	}
}
