package kiosk

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"tableflip.dev/reel/pkg/library"
	"tableflip.dev/reel/pkg/metadata"
	"tableflip.dev/reel/pkg/player"
	"tableflip.dev/reel/pkg/remote"
	"tableflip.dev/reel/pkg/selection"
	"tableflip.dev/reel/pkg/session"
	"tableflip.dev/reel/pkg/tui/launcher"
)

type scriptedScreen struct {
	results []launcher.Result
	seen    []launcher.Options
	// before runs with the options of each screen before it returns.
	before func(n int, o launcher.Options)
}

func (s *scriptedScreen) Show(ctx context.Context, o launcher.Options) (launcher.Result, error) {
	s.seen = append(s.seen, o)
	if s.before != nil {
		s.before(len(s.seen), o)
	}
	if len(s.seen) > len(s.results) {
		return launcher.Result{State: selection.Exiting}, nil
	}
	return s.results[len(s.seen)-1], nil
}

type recordingPlayer struct {
	played []string
	err    error
}

func (p *recordingPlayer) Play(ctx context.Context, path string) (int, error) {
	p.played = append(p.played, path)
	if p.err != nil {
		return -1, p.err
	}
	return 0, nil
}

type fakeService struct {
	mu      sync.Mutex
	err     error
	watched []string
}

func (f *fakeService) Index(ctx context.Context) (*remote.Index, error) {
	if f.err != nil {
		return nil, f.err
	}
	return remote.NewIndex("/lib", nil), nil
}

func (f *fakeService) Watched(ctx context.Context, e library.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, e.Path)
	return nil
}

func scanOf(paths ...string) func(string) (*library.Catalog, error) {
	return func(root string) (*library.Catalog, error) {
		c := &library.Catalog{Root: "/lib"}
		for _, p := range paths {
			c.Entries = append(c.Entries, library.Entry{Path: "/lib/" + p, Group: library.RootGroup})
		}
		return c, nil
	}
}

func newKiosk(screen *scriptedScreen, p player.Player, scan func(string) (*library.Catalog, error)) (*Kiosk, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Kiosk{
		Root:     "/lib",
		Player:   p,
		Log:      zerolog.Nop(),
		Out:      out,
		Screen:   screen.Show,
		Scan:     scan,
		Terminal: func() bool { return true },
		Rand:     rand.New(rand.NewPCG(9, 9)),
	}, out
}

func TestDoRequiresTerminal(t *testing.T) {
	k, _ := newKiosk(&scriptedScreen{}, &recordingPlayer{}, scanOf("a.mkv"))
	k.Terminal = func() bool { return false }
	if err := k.Do(context.Background()); !errors.Is(err, ErrNoTerminal) {
		t.Fatalf("expected ErrNoTerminal, got %v", err)
	}
}

func TestDoEmptyLibrary(t *testing.T) {
	screen := &scriptedScreen{}
	k, out := newKiosk(screen, &recordingPlayer{}, scanOf())
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	if !strings.Contains(out.String(), "library empty") {
		t.Fatalf("expected diagnostic, got %q", out.String())
	}
	if len(screen.seen) != 0 {
		t.Fatalf("selection screen must not open for an empty library")
	}
}

func TestDoScanFailure(t *testing.T) {
	scanErr := &library.ScanError{Root: "/lib", Err: errors.New("permission denied")}
	k, _ := newKiosk(&scriptedScreen{}, &recordingPlayer{}, func(string) (*library.Catalog, error) {
		return nil, scanErr
	})
	var se *library.ScanError
	if err := k.Do(context.Background()); !errors.As(err, &se) {
		t.Fatalf("expected ScanError, got %v", err)
	}
}

func TestDoPlaysDecisionThenReturnsToScreen(t *testing.T) {
	screen := &scriptedScreen{results: []launcher.Result{
		{State: selection.Deciding, Decision: selection.Decision{Start: 1}},
		{State: selection.Exiting},
	}}
	p := &recordingPlayer{}
	svc := &fakeService{}
	k, _ := newKiosk(screen, p, scanOf("a.mkv", "b.mkv", "c.mkv"))
	k.Service = svc
	k.Flags = session.NewFlags(false, false)
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("do: %v", err)
	}

	if len(screen.seen) != 2 {
		t.Fatalf("expected two screens, got %d", len(screen.seen))
	}
	if len(p.played) != 1 || p.played[0] != "/lib/b.mkv" {
		t.Fatalf("expected a single title at b.mkv with autoplay off, got %v", p.played)
	}
	if len(svc.watched) != 1 || svc.watched[0] != "/lib/b.mkv" {
		t.Fatalf("expected a watch notification for b.mkv, got %v", svc.watched)
	}
}

func TestDoShuffledQueueWithAutoplay(t *testing.T) {
	screen := &scriptedScreen{results: []launcher.Result{
		{State: selection.Deciding, Decision: selection.Decision{Start: 2, Shuffle: true, Reason: selection.ReasonIdle}},
	}}
	p := &recordingPlayer{}
	k, _ := newKiosk(screen, p, scanOf("a.mkv", "b.mkv", "c.mkv", "d.mkv"))
	k.Flags = session.NewFlags(true, false)
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("do: %v", err)
	}
	if len(p.played) != 4 || p.played[0] != "/lib/c.mkv" {
		t.Fatalf("expected the whole shuffled queue headed by c.mkv, got %v", p.played)
	}
}

func TestDoFlagsPersistAcrossScreens(t *testing.T) {
	screen := &scriptedScreen{
		results: []launcher.Result{
			{State: selection.Deciding, Decision: selection.Decision{Start: 0}},
			{State: selection.Exiting},
		},
		before: func(n int, o launcher.Options) {
			if n == 1 {
				o.Flags.ShuffleNext.Toggle()
				o.Flags.AutoplayNext.Set(false)
			}
		},
	}
	k, _ := newKiosk(screen, &recordingPlayer{}, scanOf("a.mkv", "b.mkv"))
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("do: %v", err)
	}
	if len(screen.seen) != 2 {
		t.Fatalf("expected two screens, got %d", len(screen.seen))
	}
	second := screen.seen[1].Flags
	if second != screen.seen[0].Flags || !second.ShuffleNext.Get() || second.AutoplayNext.Get() {
		t.Fatalf("expected toggles to carry over to the next screen")
	}
}

func TestDoPlayerFailureReturnsToScreen(t *testing.T) {
	screen := &scriptedScreen{results: []launcher.Result{
		{State: selection.Deciding, Decision: selection.Decision{Start: 0}},
		{State: selection.Exiting},
	}}
	p := &recordingPlayer{err: &player.ToolError{Tool: "mpv", Err: errors.New("not found")}}
	k, _ := newKiosk(screen, p, scanOf("a.mkv"))
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("player failures must not end the process, got %v", err)
	}
	if len(screen.seen) != 2 || !strings.Contains(screen.seen[1].Status, "player failed") {
		t.Fatalf("expected failure status on the next screen, got %+v", screen.seen)
	}
}

func TestDoServiceFailureIsNotFatal(t *testing.T) {
	screen := &scriptedScreen{}
	k, _ := newKiosk(screen, &recordingPlayer{}, scanOf("a.mkv"))
	k.Service = &fakeService{err: &remote.ServiceError{Op: "movies", Err: errors.New("connection refused")}}
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	if len(screen.seen) != 1 || screen.seen[0].Resolver == nil {
		t.Fatalf("expected the screen to open with a local-only resolver")
	}
}

// rescanning returns each catalog in turn, then keeps returning the last one.
func rescanning(t *testing.T, results ...func() (*library.Catalog, error)) func(string) (*library.Catalog, error) {
	t.Helper()
	n := 0
	return func(string) (*library.Catalog, error) {
		r := results[min(n, len(results)-1)]
		n++
		return r()
	}
}

func catalogOf(paths ...string) func() (*library.Catalog, error) {
	return func() (*library.Catalog, error) {
		return scanOf(paths...)("/lib")
	}
}

// watchedKiosk wires a kiosk whose watcher is ch. The first screen resolves
// its cursor entry, then reports change and picks the first title.
func watchedKiosk(t *testing.T, scan func(string) (*library.Catalog, error), change library.Change) (*Kiosk, *scriptedScreen, *bytes.Buffer) {
	t.Helper()
	ch := make(chan library.Change, 1)
	screen := &scriptedScreen{
		results: []launcher.Result{
			{State: selection.Deciding, Decision: selection.Decision{Start: 0}},
			{State: selection.Exiting},
		},
		before: func(n int, o launcher.Options) {
			if n == 1 {
				o.Resolver.Resolve(context.Background(), o.Catalog.Entries[0])
				ch <- change
			}
		},
	}
	k, out := newKiosk(screen, &recordingPlayer{}, scan)
	k.Flags = session.NewFlags(false, false)
	k.Watch = true
	k.Watcher = func(ctx context.Context, root string) (<-chan library.Change, error) {
		if root != "/lib" {
			t.Errorf("expected to watch the catalog root, got %s", root)
		}
		return ch, nil
	}
	return k, screen, out
}

func TestDoRescansBetweenScreens(t *testing.T) {
	scan := rescanning(t, catalogOf("a.mkv", "b.mkv"), catalogOf("a.mkv", "b.mkv", "c.mkv"))
	k, screen, _ := watchedKiosk(t, scan, library.Change{Paths: []string{"/lib/a.mkv", "/lib/c.mkv"}})
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("do: %v", err)
	}
	if len(screen.seen) != 2 {
		t.Fatalf("expected two screens, got %d", len(screen.seen))
	}
	second := screen.seen[1]
	if second.Catalog.Len() != 3 {
		t.Fatalf("expected the rescanned catalog, got %d titles", second.Catalog.Len())
	}
	if second.Status != "library updated, 3 titles" {
		t.Fatalf("unexpected status %q", second.Status)
	}
	r, ok := second.Resolver.(*metadata.Resolver)
	if !ok {
		t.Fatalf("expected a metadata resolver, got %T", second.Resolver)
	}
	if _, cached := r.Cached("/lib/a.mkv"); cached {
		t.Fatalf("expected changed paths to be dropped from the metadata cache")
	}
}

func TestDoKeepsCatalogWhenRescanFails(t *testing.T) {
	scan := rescanning(t, catalogOf("a.mkv", "b.mkv"), func() (*library.Catalog, error) {
		return nil, &library.ScanError{Root: "/lib", Err: errors.New("input/output error")}
	})
	k, screen, _ := watchedKiosk(t, scan, library.Change{Paths: []string{"/lib/b.mkv"}})
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("a failed rescan must not end the session, got %v", err)
	}
	if len(screen.seen) != 2 {
		t.Fatalf("expected two screens, got %d", len(screen.seen))
	}
	if screen.seen[1].Catalog != screen.seen[0].Catalog || screen.seen[1].Status != "" {
		t.Fatalf("expected the previous catalog without a status, got %+v", screen.seen[1])
	}
}

func TestDoEndsWhenRescanIsEmpty(t *testing.T) {
	scan := rescanning(t, catalogOf("a.mkv"), catalogOf())
	k, screen, out := watchedKiosk(t, scan, library.Change{Paths: []string{"/lib/a.mkv"}})
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	if len(screen.seen) != 1 {
		t.Fatalf("expected no screen after the library emptied, got %d", len(screen.seen))
	}
	if !strings.Contains(out.String(), "library empty") {
		t.Fatalf("expected diagnostic, got %q", out.String())
	}
}

func TestDoWatcherFailureIsNotFatal(t *testing.T) {
	screen := &scriptedScreen{}
	k, _ := newKiosk(screen, &recordingPlayer{}, scanOf("a.mkv"))
	k.Watch = true
	k.Watcher = func(context.Context, string) (<-chan library.Change, error) {
		return nil, errors.New("too many open files")
	}
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	if len(screen.seen) != 1 {
		t.Fatalf("expected the screen to open without a watcher")
	}
}
