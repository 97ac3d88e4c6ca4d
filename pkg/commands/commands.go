package commands

import (
	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/reel/pkg/commands/options"
)

var (
	oo = &base.OutputOptions{}
)

func New() *cobra.Command {
	ko := &options.KioskOptions{}

	cmd := &cobra.Command{
		Use:     "reel",
		Version: version,
		Short:   base.Wrap80("Full-screen launcher for a local video library."),
		Long:    base.Wrap80("Pick a title from the library with the keyboard or leave " +
			"the screen alone and a random title starts. Titles play in an " +
			"external player; the launcher comes back when playback stops."),
		Example: `
reel --root ~/Movies
reel --idle off --no-remote
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(cmd, ko)
		},
	}

	options.AddKioskArgs(cmd, ko)
	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addPlay(topLevel)
	addList(topLevel)
	addInfo(topLevel)
	addHistory(topLevel)
	addVersion(topLevel)
}
