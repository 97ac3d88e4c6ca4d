package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/peterbourgon/diskv/v3"
)

// Record is the local play history of one file.
type Record struct {
	Path       string    `json:"path"`
	Plays      int       `json:"plays"`
	LastPlayed time.Time `json:"last_played"`
}

// History defines the persistence contract for local watch history.
type History interface {
	Record(path string, at time.Time) (Record, error)
	Get(path string) (Record, bool, error)
	List(ctx context.Context) []Record
}

// Open creates a History backed by diskv rooted at basePath.
func Open(basePath string) (History, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("store: history path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &history{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}, nil
}

type history struct {
	mu sync.Mutex
	d  *diskv.Diskv
}

func (h *history) read(key string) (Record, error) {
	val, err := h.d.Read(key)
	if err != nil {
		return Record{}, err
	}
	r := Record{}
	if err := json.Unmarshal(val, &r); err != nil {
		return Record{}, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return r, nil
}

// Record bumps the play count for path.
func (h *history) Record(path string, at time.Time) (Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := toKey(path)
	r, err := h.read(key)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Record{}, err
	}
	r.Path = path
	r.Plays++
	r.LastPlayed = at.UTC()

	b, err := json.Marshal(r)
	if err != nil {
		return Record{}, err
	}
	if err := h.d.Write(key, b); err != nil {
		return Record{}, fmt.Errorf("store: write %s: %w", key, err)
	}
	return r, nil
}

func (h *history) Get(path string) (Record, bool, error) {
	r, err := h.read(toKey(path))
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

// List returns every record, most recently played first.
func (h *history) List(ctx context.Context) []Record {
	list := make([]Record, 0)
	for key := range h.d.Keys(ctx.Done()) {
		if !validKey(key) {
			continue
		}
		r, err := h.read(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		list = append(list, r)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].LastPlayed.Equal(list[j].LastPlayed) {
			return list[i].Path < list[j].Path
		}
		return list[i].LastPlayed.After(list[j].LastPlayed)
	})
	return list
}

// toKey makes the 16 hex digit xxhash of path.
func toKey(path string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(path))
}

// keyToPathTransform fans keys out into 256 buckets by their first byte.
func keyToPathTransform(s string) *diskv.PathKey {
	if len(s) < 2 {
		return &diskv.PathKey{FileName: s}
	}
	return &diskv.PathKey{
		Path:     []string{s[:2]},
		FileName: s,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return pathKey.FileName
}

// validKey skips anything under the base path that Record did not write.
func validKey(s string) bool {
	if len(s) != 16 {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 64)
	return err == nil
}
