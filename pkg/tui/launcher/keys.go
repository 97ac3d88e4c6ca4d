package launcher

import (
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/reel/pkg/selection"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Play     key.Binding
	Autoplay key.Binding
	Shuffle  key.Binding
	Search   key.Binding
	Back     key.Binding
	Quit     key.Binding

	// overlay
	Delete key.Binding
	Left   key.Binding
	Right  key.Binding
	Home   key.Binding
	End    key.Binding
	Jump   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Play:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		Autoplay: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "autoplay")),
		Shuffle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Back:     key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("q", "quit")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c")),

		Delete: key.NewBinding(key.WithKeys("backspace")),
		Left:   key.NewBinding(key.WithKeys("left")),
		Right:  key.NewBinding(key.WithKeys("right")),
		Home:   key.NewBinding(key.WithKeys("home", "ctrl+a")),
		End:    key.NewBinding(key.WithKeys("end", "ctrl+e")),
		Jump:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "jump")),
	}
}

func (k keyMap) browsingHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Play, k.Autoplay, k.Shuffle, k.Search, k.Back}
}

func (k keyMap) overlayHelp() []key.Binding {
	esc := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
	return []key.Binding{k.Jump, esc}
}

// event maps a key press to a machine event. Unmapped keys still produce an
// event so that they re-arm the idle clock.
func (k keyMap) event(msg tea.KeyPressMsg, overlay bool) selection.Event {
	if key.Matches(msg, k.Quit) {
		return selection.Event{Input: selection.InputQuit}
	}
	if overlay {
		switch {
		case msg.String() == "esc":
			return selection.Event{Input: selection.InputCancel}
		case key.Matches(msg, k.Jump):
			return selection.Event{Input: selection.InputConfirm}
		case key.Matches(msg, k.Delete):
			return selection.Event{Input: selection.InputBackspace}
		case key.Matches(msg, k.Left):
			return selection.Event{Input: selection.InputLeft}
		case key.Matches(msg, k.Right):
			return selection.Event{Input: selection.InputRight}
		case key.Matches(msg, k.Home):
			return selection.Event{Input: selection.InputHome}
		case key.Matches(msg, k.End):
			return selection.Event{Input: selection.InputEnd}
		case msg.Text != "":
			return selection.Event{Input: selection.InputText, Text: msg.Text}
		}
		return selection.Event{Input: selection.InputNone}
	}

	switch {
	case key.Matches(msg, k.Up):
		return selection.Event{Input: selection.InputUp}
	case key.Matches(msg, k.Down):
		return selection.Event{Input: selection.InputDown}
	case key.Matches(msg, k.Play):
		return selection.Event{Input: selection.InputConfirm}
	case key.Matches(msg, k.Autoplay):
		return selection.Event{Input: selection.InputToggleAutoplay}
	case key.Matches(msg, k.Shuffle):
		return selection.Event{Input: selection.InputToggleShuffle}
	case key.Matches(msg, k.Search):
		return selection.Event{Input: selection.InputOpenOverlay}
	case key.Matches(msg, k.Back):
		return selection.Event{Input: selection.InputCancel}
	}
	return selection.Event{Input: selection.InputNone}
}
