package remote

import (
	"path"
	"path/filepath"
	"strings"

	"tableflip.dev/reel/pkg/library"
)

// Candidates returns the path keys under which the service may know the file
// at p, most specific first: the absolute path, the path relative to root,
// the path relative to root's parent (the "movies/x.mkv" form) and the bare
// file name.
func Candidates(root, p string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		s = normalize(s)
		if s == "" || s == "." || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	abs := absPath(p)
	add(abs)
	if root != "" {
		root = absPath(root)
		if rel, err := filepath.Rel(root, abs); err == nil && !strings.HasPrefix(rel, "..") {
			add(rel)
		}
		if rel, err := filepath.Rel(filepath.Dir(root), abs); err == nil && !strings.HasPrefix(rel, "..") {
			add(rel)
		}
	}
	add(filepath.Base(abs))
	return out
}

// absPath resolves p against the working directory. Scanned entries are
// always absolute, so a relative root must be too before taking Rel.
func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}

func normalize(s string) string {
	s = strings.TrimSpace(filepath.ToSlash(s))
	if s == "" {
		return ""
	}
	s = path.Clean(s)
	return strings.TrimPrefix(s, "./")
}

// Index resolves catalog entries to service records by path key.
type Index struct {
	root   string
	byPath map[string]Movie
}

// NewIndex builds a lookup over movies for entries scanned under root. When
// two records claim the same key the first one wins.
func NewIndex(root string, movies []Movie) *Index {
	if root != "" {
		root = absPath(root)
	}
	idx := &Index{root: root, byPath: make(map[string]Movie, len(movies))}
	for _, m := range movies {
		for _, k := range m.Keys() {
			k = normalize(k)
			if k == "" {
				continue
			}
			if _, ok := idx.byPath[k]; !ok {
				idx.byPath[k] = m
			}
		}
	}
	return idx
}

// Len returns the number of distinct keys known to the index.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byPath)
}

// Lookup returns the record for e, trying each candidate key in turn.
func (i *Index) Lookup(e library.Entry) (Movie, bool) {
	if i == nil {
		return Movie{}, false
	}
	for _, k := range Candidates(i.root, e.Path) {
		if m, ok := i.byPath[k]; ok {
			return m, true
		}
	}
	return Movie{}, false
}
