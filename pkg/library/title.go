package library

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	separators  = regexp.MustCompile(`[._]+`)
	releaseTags = regexp.MustCompile(`(?i)\b(1080p|720p|2160p|x264|x265|h264|bluray|brrip|web[- ]dl|dvdrip)\b`)
	spaces      = regexp.MustCompile(`\s{2,}`)
)

// CleanTitle turns a release-style file name into a readable title, for
// example "The.Thing.1982.1080p.BluRay.x264.mkv" becomes "The Thing 1982".
func CleanTitle(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	s := separators.ReplaceAllString(base, " ")
	s = releaseTags.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return base
	}
	return s
}
