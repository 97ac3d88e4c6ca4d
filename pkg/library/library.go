// Package library discovers playable video files under a root directory and
// arranges them into a deterministic, grouped catalog.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

const (
	// RootGroup labels entries that live directly under the scan root.
	RootGroup = "."
	// RootGroupLabel is the display name for RootGroup.
	RootGroupLabel = "Library"
	// ReservedPrefix marks metadata sidecar files (AppleDouble and friends)
	// that must never be offered for playback.
	ReservedPrefix = "._"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
	".wmv":  true,
}

// Entry is one discovered video file.
type Entry struct {
	Path  string `json:"path"`
	Group string `json:"group"`
}

// Name is the file name of the entry.
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

// Title is a cleaned, human friendly title derived from the file name.
func (e Entry) Title() string {
	return CleanTitle(e.Name())
}

// GroupLabel returns the display label of the entry's group.
func (e Entry) GroupLabel() string {
	return GroupLabel(e.Group)
}

// GroupLabel maps a group key to its display label.
func GroupLabel(group string) string {
	if group == RootGroup {
		return RootGroupLabel
	}
	return group
}

// Catalog is the ordered, grouped list of entries found under Root.
type Catalog struct {
	Root    string  `json:"root"`
	Entries []Entry `json:"entries"`
}

// Len returns the number of playable entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// Empty reports whether the scan found nothing to play.
func (c *Catalog) Empty() bool {
	return c.Len() == 0
}

// Group is a contiguous run of catalog entries sharing a label.
type Group struct {
	Key   string
	Start int
	Count int
}

// Label is the display label of the group.
func (g Group) Label() string {
	return GroupLabel(g.Key)
}

// Groups returns the contiguous groups of the catalog in order.
func (c *Catalog) Groups() []Group {
	var groups []Group
	for i, e := range c.Entries {
		if n := len(groups); n > 0 && groups[n-1].Key == e.Group {
			groups[n-1].Count++
			continue
		}
		groups = append(groups, Group{Key: e.Group, Start: i, Count: 1})
	}
	return groups
}

// ScanError reports a library root that could not be read.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("library: scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsVideo reports whether name carries a recognized video extension.
func IsVideo(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// Scan walks root recursively and returns the catalog of playable videos.
// An empty catalog is not an error.
func Scan(root string) (*Catalog, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, &ScanError{Root: abs, Err: err}
	}

	var (
		mu      sync.Mutex
		entries []Entry
	)

	conf := &fastwalk.Config{Follow: true}
	err = fastwalk.Walk(conf, abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subdirectories are skipped, only the root is mandatory.
			return nil
		}
		if path == abs {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ReservedPrefix) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsVideo(name) {
			return nil
		}
		e := Entry{Path: path, Group: groupFor(abs, path)}
		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, &ScanError{Root: abs, Err: err}
	}

	Sort(entries)
	return &Catalog{Root: abs, Entries: entries}, nil
}

// Sort orders entries with the root group first, remaining groups
// lexicographically, and file names lexicographically within a group.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Group != b.Group {
			switch {
			case a.Group == RootGroup:
				return true
			case b.Group == RootGroup:
				return false
			}
			return a.Group < b.Group
		}
		if an, bn := a.Name(), b.Name(); an != bn {
			return an < bn
		}
		return a.Path < b.Path
	})
}

func groupFor(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." || rel == "" {
		return RootGroup
	}
	return filepath.ToSlash(rel)
}
