package launcher

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rivo/uniseg"

	"tableflip.dev/reel/pkg/library"
	"tableflip.dev/reel/pkg/metadata"
	"tableflip.dev/reel/pkg/selection"
	"tableflip.dev/reel/pkg/timeutil"
	"tableflip.dev/reel/pkg/tui/theme"
)

const (
	randomLabel = "Random pick"
	ellipsis    = "…"
)

// View renders the catalog, the detail pane and the footer.
func (m *Model) View() string {
	snap := m.machine.Snapshot()

	header := m.theme.Header.Render("reel") + "  " + m.theme.Detail.Muted.Render(m.catalog.Root)
	footer := m.footer(snap)
	if snap.OverlayOpen {
		footer = m.overlay() + "\n" + footer
	}

	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer)-2, 3)

	var body string
	if m.width >= 80 {
		listWidth := max(m.width*2/5, 24)
		detailWidth := max(m.width-listWidth-2, 20)
		list := m.list(listWidth, bodyHeight)
		detail := m.detail(detailWidth - m.theme.Detail.Frame.GetHorizontalFrameSize())
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", detail)
	} else {
		list := m.list(m.width, max(bodyHeight/2, 3))
		body = lipgloss.JoinVertical(lipgloss.Left, list, m.detail(m.width-m.theme.Detail.Frame.GetHorizontalFrameSize()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", footer)
}

// list renders the catalog column, scrolled so the cursor stays visible.
func (m *Model) list(width, height int) string {
	cursor := m.machine.Cursor()
	lines := make([]string, 0, m.catalog.Len()+len(m.catalog.Groups())+1)
	cursorLine := 0

	for _, g := range m.catalog.Groups() {
		lines = append(lines, m.theme.List.Group.Render(truncate.StringWithTail(g.Label(), uint(width), ellipsis)))
		for i := g.Start; i < g.Start+g.Count; i++ {
			if i == cursor {
				cursorLine = len(lines)
			}
			lines = append(lines, m.row(i, m.catalog.Entries[i], width))
		}
	}

	random := "  " + randomLabel
	if m.machine.OnRandomSlot() {
		cursorLine = len(lines)
		random = m.theme.List.Marker.Render("▸ ") + m.theme.List.Random.Bold(true).Render(randomLabel)
	} else {
		random = m.theme.List.Random.Render(random)
	}
	lines = append(lines, random)

	start := 0
	if len(lines) > height {
		start = min(max(cursorLine-height/2, 0), len(lines)-height)
	}
	end := min(start+height, len(lines))
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines[start:end], "\n"))
}

func (m *Model) row(i int, e library.Entry, width int) string {
	title := e.Title()
	if info, ok := m.info[i]; ok && info.Title != "" {
		title = info.Title
	}
	title = truncate.StringWithTail(title, uint(max(width-2, 1)), ellipsis)
	if i == m.machine.Cursor() {
		return m.theme.List.Marker.Render("▸ ") + m.theme.List.Selected.Render(title)
	}
	return "  " + m.theme.List.Item.Render(title)
}

// detail renders the metadata pane for the cursor entry.
func (m *Model) detail(width int) string {
	width = max(width, 10)
	frame := m.theme.Detail.Frame.Width(width)
	cursor := m.machine.Cursor()

	if m.machine.OnRandomSlot() {
		text := wordwrap.String("Plays a random title with shuffle on.", width)
		return frame.Render(m.theme.Detail.Title.Render(randomLabel) + "\n\n" + m.theme.Detail.Muted.Render(text))
	}
	if cursor >= m.catalog.Len() {
		return frame.Render(m.theme.Detail.Muted.Render("Library empty"))
	}

	e := m.catalog.Entries[cursor]
	info, ok := m.info[cursor]
	if !ok && m.resolver != nil {
		return frame.Render(m.theme.Detail.Title.Render(e.Title()) + "\n\n" + m.theme.Detail.Muted.Render("Loading…"))
	}
	return frame.Render(m.describe(e, info, width))
}

func (m *Model) describe(e library.Entry, info metadata.MovieInfo, width int) string {
	title := info.Title
	if title == "" {
		title = e.Title()
	}
	if year := info.YearString(); year != "" {
		title += " (" + year + ")"
	}

	var b strings.Builder
	b.WriteString(m.theme.Detail.Title.Render(wordwrap.String(title, width)))
	b.WriteString("\n")

	fields := []struct {
		label string
		value string
	}{
		{"Genre", info.Genre},
		{"Director", info.Director},
		{"Runtime", info.Runtime},
		{"Rating", info.RatingString()},
		{"Watched", watchCount(info.WatchCount)},
		{"Video", strings.TrimSpace(info.Codec + " " + info.Resolution)},
		{"Size", info.Size()},
		{"File", e.Name()},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		label := m.theme.Detail.Label.Render(fmt.Sprintf("%-9s", f.label))
		value := truncate.StringWithTail(f.value, uint(max(width-10, 1)), ellipsis)
		b.WriteString("\n" + label + " " + m.theme.Detail.Value.Render(value))
	}
	if info.Plot != "" {
		b.WriteString("\n\n" + m.theme.Detail.Plot.Render(wordwrap.String(info.Plot, width)))
	}
	return b.String()
}

func watchCount(n *int) string {
	if n == nil {
		return ""
	}
	if *n == 1 {
		return "once"
	}
	return fmt.Sprintf("%d times", *n)
}

func (m *Model) footer(snap selection.Snapshot) string {
	parts := []string{
		m.toggle("autoplay", snap.AutoplayNext),
		m.toggle("shuffle", snap.ShuffleNext),
	}
	if left := m.machine.IdleRemaining(); left >= 0 {
		style := m.theme.Footer.Countdown
		if total := m.machine.IdleTimeout(); total > 0 {
			style = style.Foreground(theme.Urgency(float64(left) / float64(total)))
		}
		parts = append(parts, style.Render("auto-pick in "+timeutil.FormatWindow(left)))
	}
	status := strings.Join(parts, m.theme.Footer.Status.Render(" · "))
	if m.status != "" {
		status += m.theme.Footer.Status.Render("  " + m.status)
	}

	bindings := m.keys.browsingHelp()
	if snap.OverlayOpen {
		bindings = m.keys.overlayHelp()
	}
	return status + "\n" + m.theme.Footer.Help.Render(m.help.ShortHelpView(bindings))
}

func (m *Model) toggle(name string, on bool) string {
	if on {
		return m.theme.Footer.ToggleOn.Render(name + " on")
	}
	return m.theme.Footer.ToggleOff.Render(name + " off")
}

func (m *Model) overlay() string {
	before, after := m.machine.OverlayParts()
	cursor := " "
	if after != "" {
		cursor, after, _, _ = uniseg.FirstGraphemeClusterInString(after, -1)
	}
	line := m.theme.Overlay.Prompt.Render("/ ") + before + m.theme.Overlay.Cursor.Render(cursor) + after
	return m.theme.Overlay.Frame.Width(max(m.width-m.theme.Overlay.Frame.GetHorizontalFrameSize(), 20)).Render(line)
}
