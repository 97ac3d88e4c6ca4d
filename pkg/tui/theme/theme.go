package theme

import (
	"image/color"

	"github.com/charmbracelet/lipgloss/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	calm   = hex("#5fafd7")
	urgent = hex("#ff5f87")
)

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Urgency blends the countdown color for the fraction of the idle budget
// left: calm at 1, urgent at 0.
func Urgency(left float64) color.Color {
	left = min(max(left, 0), 1)
	return urgent.BlendLab(calm, left).Clamped()
}

// Theme centralizes Lip Gloss styles for the launcher.
type Theme struct {
	Header  lipgloss.Style
	List    ListTheme
	Detail  DetailTheme
	Footer  FooterTheme
	Overlay OverlayTheme
}

// ListTheme styles the catalog column.
type ListTheme struct {
	Group    lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Random   lipgloss.Style
	Marker   lipgloss.Style
}

// DetailTheme styles the metadata pane.
type DetailTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Plot  lipgloss.Style
	Muted lipgloss.Style
}

// FooterTheme groups styles used by the bottom status bar.
type FooterTheme struct {
	Help      lipgloss.Style
	Status    lipgloss.Style
	ToggleOn  lipgloss.Style
	ToggleOff lipgloss.Style
	Countdown lipgloss.Style
}

// OverlayTheme styles the search line.
type OverlayTheme struct {
	Frame  lipgloss.Style
	Prompt lipgloss.Style
	Cursor lipgloss.Style
}

// Default returns the built-in theme.
func Default() Theme {
	accent := lipgloss.Color("212")
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	return Theme{
		Header: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		List: ListTheme{
			Group:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
			Item:     lipgloss.NewStyle(),
			Selected: lipgloss.NewStyle().Foreground(accent).Bold(true),
			Random:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true),
			Marker:   lipgloss.NewStyle().Foreground(accent),
		},
		Detail: DetailTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(0, 1),
			Title: lipgloss.NewStyle().Bold(true),
			Label: muted,
			Value: lipgloss.NewStyle(),
			Plot:  lipgloss.NewStyle().Italic(true),
			Muted: muted,
		},
		Footer: FooterTheme{
			Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			ToggleOn:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
			ToggleOff: muted,
			Countdown: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		},
		Overlay: OverlayTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(0, 1),
			Prompt: lipgloss.NewStyle().Foreground(accent).Bold(true),
			Cursor: lipgloss.NewStyle().Reverse(true),
		},
	}
}
