package options

import (
	"github.com/spf13/cobra"
)

// HistoryOptions
type HistoryOptions struct {
	Limit int
}

func AddHistoryArgs(cmd *cobra.Command, o *HistoryOptions) {
	cmd.Flags().IntVarP(&o.Limit, "limit", "n", 0,
		"Show at most this many titles.")
}
