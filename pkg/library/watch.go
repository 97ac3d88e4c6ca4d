package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/fsnotify/fsnotify"
)

// Change is emitted by Watch once per burst of filesystem activity under the
// library root. Paths lists the touched names, deduplicated.
type Change struct {
	Paths []string
}

// Watch streams coalesced change notifications for root until ctx is
// cancelled. A change the caller has not picked up yet absorbs later ones, so
// no path is lost while the caller is busy.
func Watch(ctx context.Context, root string) (<-chan Change, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("library: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			_ = watcher.Close()
		})
	}

	dirs, err := collectDirs(abs)
	if err != nil {
		closeWatcher()
		return nil, &ScanError{Root: abs, Err: err}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("library: watch %s: %w", dir, err)
		}
	}

	changes := make(chan Change, 1)
	var (
		sendMu sync.Mutex
		closed bool
	)

	go func() {
		defer func() {
			sendMu.Lock()
			closed = true
			close(changes)
			sendMu.Unlock()
		}()
		defer closeWatcher()

		watched := make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			watched[dir] = struct{}{}
		}

		// A flush can race the shutdown, so sends are serialized with close.
		send := func(c Change) {
			sendMu.Lock()
			defer sendMu.Unlock()
			if closed {
				return
			}
			deliver(changes, c)
		}

		throttle := newChangeThrottle(250 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Overflow and friends: we cannot tell what changed, so ask
				// for a rescan.
				throttle.Enqueue(abs, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if reserved(filepath.Base(evt.Name)) {
					continue
				}
				if evt.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						dir := filepath.Clean(evt.Name)
						if _, found := watched[dir]; !found {
							if err := watcher.Add(dir); err == nil {
								watched[dir] = struct{}{}
							}
						}
						throttle.Enqueue(evt.Name, send)
						continue
					}
				}
				if evt.Op == fsnotify.Chmod {
					continue
				}
				if !IsVideo(evt.Name) && evt.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				throttle.Enqueue(evt.Name, send)
			}
		}
	}()

	return changes, nil
}

// deliver puts c on ch without blocking. When ch already holds a change the
// two are merged. ch must have a buffer and c must be its only sender.
func deliver(ch chan Change, c Change) {
	for {
		select {
		case ch <- c:
			return
		default:
		}
		select {
		case prev := <-ch:
			c = merge(prev, c)
		default:
		}
	}
}

func merge(a, b Change) Change {
	seen := make(map[string]struct{}, len(a.Paths)+len(b.Paths))
	out := Change{Paths: make([]string, 0, len(a.Paths)+len(b.Paths))}
	for _, p := range append(append([]string{}, a.Paths...), b.Paths...) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out.Paths = append(out.Paths, p)
	}
	sort.Strings(out.Paths)
	return out
}

func reserved(name string) bool {
	return strings.HasPrefix(name, ReservedPrefix)
}

// collectDirs walks root the way Scan does, symlinked directories included,
// and returns every directory it visits.
func collectDirs(root string) ([]string, error) {
	if _, err := os.ReadDir(root); err != nil {
		return nil, err
	}
	var (
		mu   sync.Mutex
		dirs = []string{root}
	)
	conf := &fastwalk.Config{Follow: true}
	err := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}
		if !isDir(path, d) {
			return nil
		}
		if reserved(d.Name()) {
			return fastwalk.SkipDir
		}
		mu.Lock()
		dirs = append(dirs, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(dirs[1:])
	return dirs, nil
}

func isDir(path string, d fs.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// changeThrottle coalesces rapid notifications so a copy of a large file
// produces one rescan instead of hundreds.
type changeThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
	delay   time.Duration
}

func newChangeThrottle(delay time.Duration) *changeThrottle {
	return &changeThrottle{
		delay:   delay,
		pending: make(map[string]struct{}),
	}
}

func (t *changeThrottle) Enqueue(path string, send func(Change)) {
	t.mu.Lock()
	t.pending[path] = struct{}{}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *changeThrottle) flush(send func(Change)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[string]struct{})
	t.timer = nil
	t.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	c := Change{Paths: make([]string, 0, len(pending))}
	for p := range pending {
		c.Paths = append(c.Paths, p)
	}
	sort.Strings(c.Paths)
	send(c)
}

func (t *changeThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
