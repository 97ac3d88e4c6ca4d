package commands

import (
	"context"
	"errors"
	"time"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/reel/pkg/commands/options"
	"tableflip.dev/reel/pkg/config"
	"tableflip.dev/reel/pkg/logging"
	"tableflip.dev/reel/pkg/metadata"
	"tableflip.dev/reel/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command) {
	ko := &options.KioskOptions{}

	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Show the metadata the launcher would display for a file.",
		Example: `
reel info ~/Movies/Heat.1995.mkv
reel info --no-remote --json Heat.mkv
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly one file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := config.LoadFlags(cmd.Flags())
			if err != nil {
				return oo.HandleError(err)
			}
			log, closer, err := logging.Open(cfg.LogFile(), logging.ParseLevel(cfg.LogLevel()))
			if err != nil {
				return oo.HandleError(err)
			}
			defer closer.Close()

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			var enrichment metadata.Enrichment
			if c := client(cfg, ko.NoRemote, log); c != nil {
				if idx, err := c.Index(ctx); err != nil {
					log.Warn().Err(err).Msg("metadata service unavailable")
				} else {
					enrichment = idx
				}
			}

			n := info.Info{
				Path:     args[0],
				Resolver: metadata.NewResolver(metadata.FFprobe{Binary: cfg.Probe()}, enrichment, log),
				JSON:     oo.JSON,
			}
			err = n.Do(ctx)
			return oo.HandleError(err)
		},
	}

	options.AddRootArg(cmd, ko)
	options.AddRemoteArg(cmd, ko)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
