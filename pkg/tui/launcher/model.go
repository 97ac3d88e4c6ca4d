// Package launcher is the full-screen selection screen. It renders the
// catalog, feeds key presses and poll ticks into a selection.Machine and
// closes once the machine reaches a terminal state.
package launcher

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/bubbles/v2/help"
	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/reel/pkg/library"
	"tableflip.dev/reel/pkg/metadata"
	"tableflip.dev/reel/pkg/selection"
	"tableflip.dev/reel/pkg/session"
	"tableflip.dev/reel/pkg/tui/theme"
)

// DefaultPoll bounds how late the idle auto-pick can fire.
const DefaultPoll = 100 * time.Millisecond

// Resolver supplies the detail pane. Resolve may block; it always runs off
// the update loop.
type Resolver interface {
	Resolve(ctx context.Context, e library.Entry) metadata.MovieInfo
}

// Options configure one screen.
type Options struct {
	Catalog     *library.Catalog
	Resolver    Resolver
	Flags       *session.Flags
	IdleTimeout time.Duration
	Poll        time.Duration
	Now         func() time.Time
	Rand        *rand.Rand
	// Status is shown in the footer until the first key press.
	Status string
	Theme  *theme.Theme
}

// Result is how a screen ended.
type Result struct {
	State    selection.State
	Decision selection.Decision
}

// Play reports whether the screen ended with a playback decision.
func (r Result) Play() bool {
	return r.State == selection.Deciding
}

type tickMsg struct{}

type resolvedMsg struct {
	index int
	info  metadata.MovieInfo
}

// Model is the Bubble Tea model of the selection screen.
type Model struct {
	ctx      context.Context
	catalog  *library.Catalog
	machine  *selection.Machine
	resolver Resolver
	poll     time.Duration
	now      func() time.Time

	theme theme.Theme
	keys  keyMap
	help  help.Model

	info    map[int]metadata.MovieInfo
	pending map[int]bool
	status  string

	width  int
	height int
}

// New builds the model with a fresh selection state.
func New(ctx context.Context, o Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	catalog := o.Catalog
	if catalog == nil {
		catalog = &library.Catalog{}
	}
	if o.Poll <= 0 {
		o.Poll = DefaultPoll
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	th := theme.Default()
	if o.Theme != nil {
		th = *o.Theme
	}

	labels := make([]string, catalog.Len())
	for i, e := range catalog.Entries {
		labels[i] = e.Title() + " " + e.Name()
	}

	return &Model{
		ctx:     ctx,
		catalog: catalog,
		machine: selection.New(selection.Options{
			Size:        catalog.Len(),
			Labels:      labels,
			IdleTimeout: o.IdleTimeout,
			Flags:       o.Flags,
			Now:         o.Now,
			Rand:        o.Rand,
		}),
		resolver: o.Resolver,
		poll:     o.Poll,
		now:      o.Now,
		theme:    th,
		keys:     defaultKeys(),
		help:     help.New(),
		info:     make(map[int]metadata.MovieInfo),
		pending:  make(map[int]bool),
		status:   o.Status,
		width:    100,
		height:   30,
	}
}

// Init starts the poll loop and resolves the first entry.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.resolve())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.machine.NextWait(m.poll), func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// resolve loads metadata for the entry under the cursor unless it is already
// known or in flight.
func (m *Model) resolve() tea.Cmd {
	i := m.machine.Cursor()
	if m.resolver == nil || i >= m.catalog.Len() {
		return nil
	}
	if _, ok := m.info[i]; ok || m.pending[i] {
		return nil
	}
	m.pending[i] = true
	ctx, r, e := m.ctx, m.resolver, m.catalog.Entries[i]
	return func() tea.Msg {
		return resolvedMsg{index: i, info: r.Resolve(ctx, e)}
	}
}

// Update handles messages and keybindings.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		if m.machine.Tick().Terminal() {
			return m, tea.Quit
		}
		return m, m.tick()

	case resolvedMsg:
		delete(m.pending, msg.index)
		m.info[msg.index] = msg.info
		return m, nil

	case tea.KeyPressMsg:
		m.status = ""
		overlay := m.machine.State() == selection.OverlayEditing
		before := m.machine.Cursor()
		if m.machine.Handle(m.keys.event(msg, overlay)).Terminal() {
			return m, tea.Quit
		}
		if m.machine.Cursor() != before {
			return m, m.resolve()
		}
		return m, nil
	}
	return m, nil
}

// Result reports how the screen ended. A screen that closed without reaching
// a terminal state, for instance because the program was killed, counts as
// an exit.
func (m *Model) Result() Result {
	st := m.machine.State()
	if !st.Terminal() {
		return Result{State: selection.Exiting}
	}
	d, _ := m.machine.Decision()
	return Result{State: st, Decision: d}
}

// Run shows one selection screen and blocks until it closes.
func Run(ctx context.Context, o Options) (Result, error) {
	m := New(ctx, o)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return Result{}, err
	}
	return m.Result(), nil
}
