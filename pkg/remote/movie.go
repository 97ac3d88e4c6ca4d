package remote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Movie is one record served by the metadata service.
type Movie struct {
	ID         int      `json:"id"`
	IMDBID     string   `json:"imdb_id"`
	Title      string   `json:"title"`
	Year       *int     `json:"year"`
	Genre      string   `json:"genre"`
	Director   string   `json:"director"`
	Plot       string   `json:"plot"`
	Runtime    string   `json:"runtime"`
	Rating     *float64 `json:"rating"`
	WatchCount *int     `json:"watch_count"`
	FileKey    string   `json:"file_key"`
	FilePaths  PathList `json:"file_paths"`
}

// Keys returns every path key the record is associated with.
func (m Movie) Keys() []string {
	keys := make([]string, 0, len(m.FilePaths)+1)
	if m.FileKey != "" {
		keys = append(keys, m.FileKey)
	}
	return append(keys, m.FilePaths...)
}

// PathList decodes a list of paths that the service may send as a JSON array,
// a JSON document encoded inside a string, or a single bare string.
type PathList []string

func (p *PathList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*p = compact(list)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Anything else is ignored rather than failing the whole record.
		*p = nil
		return nil
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			*p = compact(list)
			return nil
		}
	}
	*p = compact([]string{s})
	return nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// YearString renders the year or an empty string when unknown.
func (m Movie) YearString() string {
	if m.Year == nil || *m.Year == 0 {
		return ""
	}
	return strconv.Itoa(*m.Year)
}
