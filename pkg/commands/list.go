package commands

import (
	"context"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/reel/pkg/commands/options"
	"tableflip.dev/reel/pkg/config"
	"tableflip.dev/reel/pkg/runner/list"
)

func addList(topLevel *cobra.Command) {
	ko := &options.KioskOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the playable titles in the library.",
		Example: `
reel list
reel list --root /srv/movies --json
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := config.LoadFlags(cmd.Flags())
			if err != nil {
				return oo.HandleError(err)
			}
			l := list.List{
				Root: cfg.Root(),
				JSON: oo.JSON,
			}
			err = l.Do(context.Background())
			return oo.HandleError(err)
		},
	}

	options.AddRootArg(cmd, ko)
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
