// Package list prints the catalog.
package list

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/reel/pkg/library"
)

// List prints every playable entry under Root, grouped.
type List struct {
	Root string
	JSON bool
	Out  io.Writer
	Scan func(root string) (*library.Catalog, error)
}

// Do scans Root and prints the catalog.
func (l *List) Do(ctx context.Context) error {
	if l.Out == nil {
		l.Out = color.Output
	}
	if l.Scan == nil {
		l.Scan = library.Scan
	}

	c, err := l.Scan(l.Root)
	if err != nil {
		return err
	}

	if l.JSON {
		enc := json.NewEncoder(l.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	if c.Empty() {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprintf(l.Out, "library empty: no playable videos under %s\n", c.Root)
		return nil
	}

	title := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)
	for _, g := range c.Groups() {
		_, _ = title.Fprint(l.Out, g.Label())
		_, _ = faint.Fprintf(l.Out, " - %d\n", g.Count)

		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = 60
		for _, e := range c.Entries[g.Start : g.Start+g.Count] {
			tbl.AddRow("", e.Title(), faint.Sprint(e.Name()))
		}
		_, _ = fmt.Fprintln(l.Out, tbl)
		_, _ = fmt.Fprintln(l.Out, "")
	}
	_, _ = faint.Fprintf(l.Out, "%d titles in %s\n", c.Len(), c.Root)
	return nil
}
