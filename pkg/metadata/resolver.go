package metadata

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"tableflip.dev/reel/pkg/library"
	"tableflip.dev/reel/pkg/remote"
)

// Enrichment looks up service records for catalog entries.
type Enrichment interface {
	Lookup(e library.Entry) (remote.Movie, bool)
}

// Resolver lazily resolves and caches MovieInfo per entry path. The cache
// lives as long as the Resolver and is never persisted.
type Resolver struct {
	prober     Prober
	enrichment Enrichment
	log        zerolog.Logger
	stat       func(string) (os.FileInfo, error)

	mu    sync.Mutex
	cache map[string]MovieInfo
}

// NewResolver creates a Resolver. Either source may be nil.
func NewResolver(prober Prober, enrichment Enrichment, log zerolog.Logger) *Resolver {
	return &Resolver{
		prober:     prober,
		enrichment: enrichment,
		log:        log,
		stat:       os.Stat,
		cache:      make(map[string]MovieInfo),
	}
}

// Cached returns the cached info for path, if resolved already.
func (r *Resolver) Cached(path string) (MovieInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.cache[path]
	return info, ok
}

// Invalidate drops the cached info for path.
func (r *Resolver) Invalidate(path string) {
	r.mu.Lock()
	delete(r.cache, path)
	r.mu.Unlock()
}

// Resolve returns the info for e, resolving it on first use. Failures of
// either source only leave fields absent.
func (r *Resolver) Resolve(ctx context.Context, e library.Entry) MovieInfo {
	if info, ok := r.Cached(e.Path); ok {
		return info
	}

	var rec *remote.Movie
	if r.enrichment != nil {
		if m, ok := r.enrichment.Lookup(e); ok {
			rec = &m
		} else {
			r.log.Debug().Str("path", e.Path).Msg("metadata: no service record")
		}
	}

	p, probed := r.probe(ctx, e.Path)
	info := Merge(rec, p)
	info.Probed = probed
	if info.Title == "" {
		info.Title = e.Title()
	}

	r.mu.Lock()
	// A concurrent resolve may have won; keep the first result.
	if existing, ok := r.cache[e.Path]; ok {
		r.mu.Unlock()
		return existing
	}
	r.cache[e.Path] = info
	r.mu.Unlock()
	return info
}

// probe reports whether the probe tool itself produced anything; a size
// filled in from stat does not count.
func (r *Resolver) probe(ctx context.Context, path string) (Probe, bool) {
	var p Probe
	if r.prober != nil {
		var err error
		p, err = r.prober.Probe(ctx, path)
		if err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("metadata: probe failed")
			p = Probe{}
		}
	}
	probed := !p.Empty()
	if p.Size == nil {
		if fi, err := r.stat(path); err == nil {
			size := fi.Size()
			p.Size = &size
		}
	}
	return p, probed
}
