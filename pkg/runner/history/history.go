// Package history prints the local play history.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/reel/pkg/store"
)

// History lists recorded plays, most recent first.
type History struct {
	Store store.History
	JSON  bool
	// Limit caps the number of rows; zero means all.
	Limit int
	Out   io.Writer
	Now   func() time.Time
}

// Do renders the history.
func (h *History) Do(ctx context.Context) error {
	if h.Out == nil {
		h.Out = color.Output
	}
	if h.Now == nil {
		h.Now = time.Now
	}
	if h.Store == nil {
		return errors.New("history: no store")
	}

	records := h.Store.List(ctx)
	if h.Limit > 0 && len(records) > h.Limit {
		records = records[:h.Limit]
	}

	if h.JSON {
		enc := json.NewEncoder(h.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		_, _ = color.New(color.Faint).Fprintln(h.Out, "nothing played yet")
		return nil
	}

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 80
	tbl.AddRow(bold.Sprint("Plays"), bold.Sprint("Last played"), bold.Sprint("File"))
	for _, r := range records {
		tbl.AddRow(r.Plays, ago(h.Now().Sub(r.LastPlayed)), r.Path)
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(h.Out, "")
	_, _ = fmt.Fprintln(h.Out, tbl)
	return nil
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
