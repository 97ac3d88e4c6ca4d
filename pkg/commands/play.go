package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tableflip.dev/reel/pkg/commands/options"
	"tableflip.dev/reel/pkg/config"
	"tableflip.dev/reel/pkg/logging"
	"tableflip.dev/reel/pkg/metadata"
	"tableflip.dev/reel/pkg/player"
	"tableflip.dev/reel/pkg/remote"
	"tableflip.dev/reel/pkg/runner/kiosk"
	"tableflip.dev/reel/pkg/session"
	"tableflip.dev/reel/pkg/store"
)

func addPlay(topLevel *cobra.Command) {
	ko := &options.KioskOptions{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Open the launcher (the default command).",
		Example: `
reel play --root /srv/movies --shuffle
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(cmd, ko)
		},
	}

	options.AddKioskArgs(cmd, ko)
	topLevel.AddCommand(cmd)
}

func play(cmd *cobra.Command, ko *options.KioskOptions) error {
	cmd.SilenceUsage = true

	cfg, err := config.LoadFlags(cmd.Flags())
	if err != nil {
		return err
	}
	log, closer, err := logging.Open(cfg.LogFile(), logging.ParseLevel(cfg.LogLevel()))
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k := &kiosk.Kiosk{
		Root:        cfg.Root(),
		IdleTimeout: cfg.IdleTimeout(),
		Poll:        cfg.PollInterval(),
		Watch:       cfg.Watch(),
		Flags:       session.NewFlags(cfg.Autoplay(), cfg.Shuffle()),
		Player:      player.MPV{Binary: cfg.Player()},
		Prober:      metadata.FFprobe{Binary: cfg.Probe()},
		Log:         log,
	}
	if c := client(cfg, ko.NoRemote, log); c != nil {
		k.Service = c
	}
	if h, err := store.Open(cfg.HistoryPath()); err != nil {
		log.Warn().Err(err).Msg("local history disabled")
	} else {
		k.History = h
	}

	log.Info().
		Str("root", k.Root).
		Dur("idle", k.IdleTimeout).
		Bool("autoplay", cfg.Autoplay()).
		Bool("shuffle", cfg.Shuffle()).
		Bool("remote", k.Service != nil).
		Msg("reel starting")
	return k.Do(ctx)
}

// client returns nil when the metadata service is disabled or misconfigured.
func client(cfg config.Config, disabled bool, log zerolog.Logger) *remote.Client {
	if disabled || cfg.APIURL() == "" {
		return nil
	}
	c, err := remote.New(cfg.APIURL(), cfg.Root(), remote.WithLimit(cfg.APILimit()))
	if err != nil {
		log.Warn().Err(err).Msg("metadata service disabled")
		return nil
	}
	return c
}
