// Package options defines shared flag helpers for CLI commands.
package options

import (
	"github.com/spf13/cobra"
)

// KioskOptions are the launcher flags. Unset flags leave the configured
// value alone.
type KioskOptions struct {
	Root     string
	Player   string
	Idle     string
	Autoplay bool
	Shuffle  bool
	Watch    bool
	NoRemote bool
	LogFile  string
}

// AddRootArg registers --root.
func AddRootArg(cmd *cobra.Command, o *KioskOptions) {
	cmd.Flags().StringVarP(&o.Root, "root", "r", "",
		"Library root to scan.")
}

// AddRemoteArg registers --no-remote.
func AddRemoteArg(cmd *cobra.Command, o *KioskOptions) {
	cmd.Flags().BoolVar(&o.NoRemote, "no-remote", false,
		"Do not contact the metadata service.")
}

// AddKioskArgs registers every launcher flag.
func AddKioskArgs(cmd *cobra.Command, o *KioskOptions) {
	AddRootArg(cmd, o)
	AddRemoteArg(cmd, o)
	cmd.Flags().StringVar(&o.Player, "player", "mpv",
		"Video player binary.")
	cmd.Flags().StringVar(&o.Idle, "idle", "30s",
		"Idle time before a random title starts, or 'off'.")
	cmd.Flags().BoolVarP(&o.Autoplay, "autoplay", "a", true,
		"Keep playing the queue after each title.")
	cmd.Flags().BoolVarP(&o.Shuffle, "shuffle", "s", false,
		"Shuffle the queue after a manual pick.")
	cmd.Flags().BoolVar(&o.Watch, "watch", false,
		"Rescan the library when files change.")
	cmd.Flags().StringVar(&o.LogFile, "log-file", "",
		"Log file; empty keeps the configured one.")
}
