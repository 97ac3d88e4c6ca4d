// Package kiosk runs the launcher session loop: scan, select, play, repeat.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/reel/pkg/library"
	"tableflip.dev/reel/pkg/metadata"
	"tableflip.dev/reel/pkg/player"
	"tableflip.dev/reel/pkg/queue"
	"tableflip.dev/reel/pkg/remote"
	"tableflip.dev/reel/pkg/session"
	"tableflip.dev/reel/pkg/store"
	"tableflip.dev/reel/pkg/tui/launcher"
)

// ErrNoTerminal is returned when stdout is not an interactive terminal.
var ErrNoTerminal = errors.New("kiosk: an interactive terminal is required")

// Screen shows one selection screen.
type Screen func(ctx context.Context, o launcher.Options) (launcher.Result, error)

// Service is the optional metadata service.
type Service interface {
	Index(ctx context.Context) (*remote.Index, error)
	Watched(ctx context.Context, e library.Entry) error
}

// Kiosk plays videos from Root until the operator quits.
type Kiosk struct {
	Root        string
	IdleTimeout time.Duration
	Poll        time.Duration
	Watch       bool
	Flags       *session.Flags

	Player  player.Player
	Prober  metadata.Prober
	Service Service
	History store.History
	Log     zerolog.Logger
	Out     io.Writer

	// Seams, defaulted in Do.
	Screen   Screen
	Scan     func(root string) (*library.Catalog, error)
	Watcher  func(ctx context.Context, root string) (<-chan library.Change, error)
	Terminal func() bool
	Rand     *rand.Rand
	Now      func() time.Time
}

func (k *Kiosk) defaults() {
	if k.Out == nil {
		k.Out = os.Stdout
	}
	if k.Screen == nil {
		k.Screen = launcher.Run
	}
	if k.Scan == nil {
		k.Scan = library.Scan
	}
	if k.Watcher == nil {
		k.Watcher = library.Watch
	}
	if k.Terminal == nil {
		k.Terminal = func() bool {
			fd := os.Stdout.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		}
	}
	if k.Flags == nil {
		k.Flags = session.NewFlags(true, false)
	}
	if k.Now == nil {
		k.Now = time.Now
	}
	if k.Player == nil {
		k.Player = player.MPV{}
	}
}

// Do runs the session loop. It returns nil when the operator quits or the
// library is empty, and an error for a scan failure or a broken terminal.
func (k *Kiosk) Do(ctx context.Context) error {
	k.defaults()
	if !k.Terminal() {
		return ErrNoTerminal
	}

	catalog, index, err := k.startup(ctx)
	if err != nil {
		return err
	}
	if catalog.Empty() {
		_, _ = fmt.Fprintf(k.Out, "library empty: no playable videos under %s\n", catalog.Root)
		return nil
	}

	var enrichment metadata.Enrichment
	if index != nil {
		enrichment = index
	}
	resolver := metadata.NewResolver(k.Prober, enrichment, k.Log)

	driver := &player.Driver{
		Player:  k.Player,
		History: k.History,
		Flags:   k.Flags,
		Log:     k.Log,
		Now:     k.Now,
	}
	if k.Service != nil {
		driver.Notifier = k.Service
	}
	defer driver.Wait()

	var changes <-chan library.Change
	if k.Watch {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		changes, err = k.Watcher(wctx, catalog.Root)
		if err != nil {
			k.Log.Warn().Err(err).Msg("library watch disabled")
		}
	}

	status := ""
	for {
		if next, ok := k.rescan(changes, catalog, resolver); ok {
			if next.Empty() {
				_, _ = fmt.Fprintf(k.Out, "library empty: no playable videos under %s\n", next.Root)
				return nil
			}
			catalog = next
			status = fmt.Sprintf("library updated, %d titles", catalog.Len())
		}

		res, err := k.Screen(ctx, launcher.Options{
			Catalog:     catalog,
			Resolver:    resolver,
			Flags:       k.Flags,
			IdleTimeout: k.IdleTimeout,
			Poll:        k.Poll,
			Now:         k.Now,
			Rand:        k.Rand,
			Status:      status,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kiosk: selection screen: %w", err)
		}
		status = ""
		if !res.Play() {
			return nil
		}

		d := res.Decision
		q, err := queue.Build(catalog.Entries, d.Start, d.Shuffle, k.Rand)
		if err != nil {
			// The machine only ever produces in-range starts.
			return fmt.Errorf("kiosk: internal: %w", err)
		}
		k.Log.Info().
			Str("reason", d.Reason.String()).
			Int("start", d.Start).
			Bool("shuffle", d.Shuffle).
			Int("queued", q.Len()).
			Msg("playback starting")

		out := driver.Play(ctx, q)
		k.Log.Info().
			Str("halt", out.Reason.String()).
			Int("played", out.Played).
			Str("last", out.Last.Path).
			Msg("playback finished")

		switch out.Reason {
		case player.Cancelled:
			return nil
		case player.Failed:
			status = "player failed: " + out.Err.Error()
		}
	}
}

// startup scans the library and fetches the service index concurrently. Only
// the scan can fail the startup.
func (k *Kiosk) startup(ctx context.Context) (*library.Catalog, *remote.Index, error) {
	var (
		catalog *library.Catalog
		index   *remote.Index
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := k.Scan(k.Root)
		if err != nil {
			return err
		}
		catalog = c
		return nil
	})
	if k.Service != nil {
		g.Go(func() error {
			idx, err := k.Service.Index(gctx)
			if err != nil {
				k.Log.Warn().Err(err).Msg("metadata service unavailable")
				return nil
			}
			k.Log.Debug().Int("records", idx.Len()).Msg("metadata service index loaded")
			index = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return catalog, index, nil
}

// rescan drains pending library changes and returns a fresh catalog when
// something changed and the rescan succeeded.
func (k *Kiosk) rescan(changes <-chan library.Change, current *library.Catalog, resolver *metadata.Resolver) (*library.Catalog, bool) {
	if changes == nil {
		return nil, false
	}
	changed := false
	for {
		select {
		case c, ok := <-changes:
			if !ok {
				return k.rescanIf(changed, current)
			}
			changed = true
			for _, p := range c.Paths {
				resolver.Invalidate(p)
			}
		default:
			return k.rescanIf(changed, current)
		}
	}
}

func (k *Kiosk) rescanIf(changed bool, current *library.Catalog) (*library.Catalog, bool) {
	if !changed {
		return nil, false
	}
	next, err := k.Scan(current.Root)
	if err != nil {
		k.Log.Warn().Err(err).Msg("rescan failed, keeping the previous catalog")
		return nil, false
	}
	k.Log.Info().Int("entries", next.Len()).Msg("library rescanned")
	return next, true
}
