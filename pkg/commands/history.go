package commands

import (
	"context"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/reel/pkg/commands/options"
	"tableflip.dev/reel/pkg/config"
	"tableflip.dev/reel/pkg/runner/history"
	"tableflip.dev/reel/pkg/store"
)

func addHistory(topLevel *cobra.Command) {
	ho := &options.HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Titles played to the end on this machine.",
		Example: `
reel history
reel history -n 10 --json
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := config.Load()
			if err != nil {
				return oo.HandleError(err)
			}
			s, err := store.Open(cfg.HistoryPath())
			if err != nil {
				return oo.HandleError(err)
			}
			h := history.History{
				Store: s,
				JSON:  oo.JSON,
				Limit: ho.Limit,
			}
			err = h.Do(context.Background())
			return oo.HandleError(err)
		},
	}

	options.AddHistoryArgs(cmd, ho)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
