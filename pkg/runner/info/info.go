// Package info prints the resolved metadata of one file.
package info

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/reel/pkg/library"
	"tableflip.dev/reel/pkg/metadata"
)

// Resolver resolves one entry.
type Resolver interface {
	Resolve(ctx context.Context, e library.Entry) metadata.MovieInfo
}

// Info describes Path the way the launcher's detail pane does.
type Info struct {
	Path     string
	Resolver Resolver
	JSON     bool
	Out      io.Writer
}

// Do resolves and prints the metadata.
func (n *Info) Do(ctx context.Context) error {
	if n.Out == nil {
		n.Out = color.Output
	}
	if n.Resolver == nil {
		return errors.New("info: no resolver")
	}

	abs, err := filepath.Abs(n.Path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("info: %s is a directory", n.Path)
	}
	if !library.IsVideo(abs) {
		return fmt.Errorf("info: %s is not a recognized video file", n.Path)
	}

	e := library.Entry{Path: abs, Group: library.RootGroup}
	info := n.Resolver.Resolve(ctx, e)

	if n.JSON {
		enc := json.NewEncoder(n.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	title := info.Title
	if y := info.YearString(); y != "" {
		title += " (" + y + ")"
	}
	_, _ = fmt.Fprintln(n.Out, "")
	_, _ = bold.Fprintln(n.Out, title)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = 72
	add := func(label, value string) {
		if value != "" {
			tbl.AddRow(faint.Sprint(label), value)
		}
	}
	add("Genre", info.Genre)
	add("Director", info.Director)
	add("Runtime", info.Runtime)
	add("Rating", info.RatingString())
	if info.WatchCount != nil {
		add("Watched", fmt.Sprintf("%d", *info.WatchCount))
	}
	add("Codec", info.Codec)
	add("Resolution", info.Resolution)
	add("Size", info.Size())
	add("Plot", info.Plot)
	add("File", abs)
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(n.Out, tbl)

	sources := "file system"
	switch {
	case info.Remote && info.Probed:
		sources = "metadata service, probe"
	case info.Remote:
		sources = "metadata service"
	case info.Probed:
		sources = "probe"
	}
	_, _ = faint.Fprintf(n.Out, "\nsource: %s\n", sources)
	return nil
}
