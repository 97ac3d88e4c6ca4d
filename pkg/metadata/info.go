// Package metadata resolves descriptive and technical information for
// catalog entries from the metadata service and the local probe tool.
package metadata

import (
	"fmt"
	"math"
	"strconv"

	"tableflip.dev/reel/pkg/remote"
)

// MovieInfo is the merged metadata for one entry. Empty strings and nil
// pointers mean the field is absent.
type MovieInfo struct {
	Title      string   `json:"title,omitempty"`
	Year       *int     `json:"year,omitempty"`
	Genre      string   `json:"genre,omitempty"`
	Director   string   `json:"director,omitempty"`
	Plot       string   `json:"plot,omitempty"`
	Runtime    string   `json:"runtime,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	WatchCount *int     `json:"watch_count,omitempty"`
	Codec      string   `json:"codec,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
	FileSize   *int64   `json:"file_size,omitempty"`

	Remote bool `json:"remote"`
	Probed bool `json:"probed"`
}

// Size renders FileSize or an empty string.
func (m MovieInfo) Size() string {
	if m.FileSize == nil {
		return ""
	}
	return FormatSize(*m.FileSize)
}

// YearString renders Year or an empty string.
func (m MovieInfo) YearString() string {
	if m.Year == nil || *m.Year == 0 {
		return ""
	}
	return strconv.Itoa(*m.Year)
}

// RatingString renders Rating with one decimal or an empty string.
func (m MovieInfo) RatingString() string {
	if m.Rating == nil {
		return ""
	}
	return strconv.FormatFloat(*m.Rating, 'f', 1, 64)
}

// Merge combines a service record and a probe report. Descriptive fields come
// from the service when it has them; runtime falls back to the probed
// duration; codec, resolution and size only ever come from the probe.
func Merge(rec *remote.Movie, p Probe) MovieInfo {
	var info MovieInfo
	if rec != nil {
		info.Remote = true
		info.Title = rec.Title
		if rec.Year != nil && *rec.Year != 0 {
			y := *rec.Year
			info.Year = &y
		}
		info.Genre = rec.Genre
		info.Director = rec.Director
		info.Plot = rec.Plot
		info.Runtime = rec.Runtime
		if rec.Rating != nil {
			r := *rec.Rating
			info.Rating = &r
		}
		if rec.WatchCount != nil {
			w := *rec.WatchCount
			info.WatchCount = &w
		}
	}

	info.Probed = !p.Empty()
	if info.Runtime == "" && p.Duration != nil {
		info.Runtime = FormatDuration(*p.Duration)
	}
	info.Codec = p.Codec
	info.Resolution = p.Resolution()
	if p.Size != nil {
		s := *p.Size
		info.FileSize = &s
	}
	return info
}

// FormatDuration renders seconds as H:MM:SS at or above one hour and M:SS
// below it, truncating each unit.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with binary-prefixed units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[unit])
}
