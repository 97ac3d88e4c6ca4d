// Package selection implements the interactive selection state machine: the
// cursor over the catalog plus its random-pick slot, the idle auto-pick, the
// operator toggles and the modal search overlay.
package selection

import (
	"math/rand/v2"
	"strings"
	"time"

	"tableflip.dev/reel/pkg/session"
)

// DefaultIdleTimeout is how long the screen waits for input before picking
// something at random.
const DefaultIdleTimeout = 30 * time.Second

// State is the phase of one selection screen.
type State int

const (
	// Browsing moves the cursor and accepts commands.
	Browsing State = iota
	// OverlayEditing routes input to the search overlay.
	OverlayEditing
	// Deciding is terminal: a playback decision was made.
	Deciding
	// Exiting is terminal: the operator asked to quit.
	Exiting
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case OverlayEditing:
		return "overlay"
	case Deciding:
		return "deciding"
	case Exiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// Terminal reports whether the screen should close.
func (s State) Terminal() bool {
	return s == Deciding || s == Exiting
}

// Input is a discrete key event kind.
type Input int

const (
	InputNone Input = iota
	InputUp
	InputDown
	InputConfirm
	InputToggleAutoplay
	InputToggleShuffle
	InputOpenOverlay
	InputCancel
	InputText
	InputBackspace
	InputLeft
	InputRight
	InputHome
	InputEnd
	// InputQuit exits from any state, overlay included.
	InputQuit
)

// Event is one input delivered to the machine. Text carries the characters of
// an InputText event.
type Event struct {
	Input Input
	Text  string
}

// Reason records why a decision was made.
type Reason int

const (
	ReasonPick Reason = iota
	ReasonRandomSlot
	ReasonIdle
)

func (r Reason) String() string {
	switch r {
	case ReasonPick:
		return "pick"
	case ReasonRandomSlot:
		return "random"
	case ReasonIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a Deciding screen.
type Decision struct {
	Start   int
	Shuffle bool
	Reason  Reason
}

// Options configure a Machine.
type Options struct {
	// Size is the number of catalog entries; the cursor ranges over [0, Size].
	Size int
	// Labels are searched by the overlay, one per catalog entry.
	Labels []string
	// IdleTimeout defaults to DefaultIdleTimeout; negative disables the
	// idle auto-pick.
	IdleTimeout time.Duration
	Flags       *session.Flags
	Now         func() time.Time
	Rand        *rand.Rand
}

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	State         State
	Cursor        int
	AutoplayNext  bool
	ShuffleNext   bool
	OverlayOpen   bool
	OverlayText   string
	OverlayCursor int
	LastInputAt   time.Time
}

// Machine is the selection state machine. It is not safe for concurrent use;
// the toggle flags it shares are.
type Machine struct {
	size   int
	labels []string
	idle   time.Duration
	flags  *session.Flags
	now    func() time.Time
	rng    *rand.Rand

	state     State
	cursor    int
	overlay   overlay
	lastInput time.Time
	decision  Decision
}

// New creates a machine in the Browsing state with the idle clock armed.
func New(o Options) *Machine {
	if o.Size < 0 {
		o.Size = 0
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.Flags == nil {
		o.Flags = session.NewFlags(true, false)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	m := &Machine{
		size:   o.Size,
		labels: make([]string, len(o.Labels)),
		idle:   o.IdleTimeout,
		flags:  o.Flags,
		now:    o.Now,
		rng:    o.Rand,
		state:  Browsing,
	}
	for i, l := range o.Labels {
		m.labels[i] = strings.ToLower(l)
	}
	m.lastInput = m.now()
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Cursor returns the cursor; Size() denotes the random-pick slot.
func (m *Machine) Cursor() int {
	return m.cursor
}

// Size returns the catalog size the machine was built for.
func (m *Machine) Size() int {
	return m.size
}

// IdleTimeout returns the idle budget; negative when the idle pick is off.
func (m *Machine) IdleTimeout() time.Duration {
	return m.idle
}

// OnRandomSlot reports whether the cursor sits on the random-pick slot.
func (m *Machine) OnRandomSlot() bool {
	return m.cursor == m.size
}

// Decision returns the decision once the machine reached Deciding.
func (m *Machine) Decision() (Decision, bool) {
	return m.decision, m.state == Deciding
}

// Snapshot returns a copy of the observable state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		State:         m.state,
		Cursor:        m.cursor,
		AutoplayNext:  m.flags.AutoplayNext.Get(),
		ShuffleNext:   m.flags.ShuffleNext.Get(),
		OverlayOpen:   m.state == OverlayEditing,
		OverlayText:   m.overlay.String(),
		OverlayCursor: m.overlay.cursor,
		LastInputAt:   m.lastInput,
	}
}

// IdleRemaining returns the time left before the idle auto-pick fires, or a
// negative duration when the idle pick is disabled or not applicable.
func (m *Machine) IdleRemaining() time.Duration {
	if m.idle < 0 || m.state != Browsing || m.size == 0 {
		return -1
	}
	left := m.idle - m.now().Sub(m.lastInput)
	if left < 0 {
		return 0
	}
	return left
}

// NextWait returns how long the owning loop should wait for input before
// calling Tick: the lesser of quantum and the remaining idle budget.
func (m *Machine) NextWait(quantum time.Duration) time.Duration {
	left := m.IdleRemaining()
	if left >= 0 && left < quantum {
		return left
	}
	return quantum
}

// Tick fires the idle auto-pick when the idle budget is spent while browsing.
func (m *Machine) Tick() State {
	if m.state == Browsing && m.idle >= 0 && m.size > 0 && m.now().Sub(m.lastInput) >= m.idle {
		m.decide(m.randomIndex(), true, ReasonIdle)
	}
	return m.state
}

// Handle applies ev and returns the resulting state. Every event re-arms the
// idle clock, whatever the state.
func (m *Machine) Handle(ev Event) State {
	if m.state.Terminal() {
		return m.state
	}
	m.lastInput = m.now()

	if ev.Input == InputQuit {
		m.state = Exiting
		return m.state
	}
	switch m.state {
	case Browsing:
		m.handleBrowsing(ev)
	case OverlayEditing:
		m.handleOverlay(ev)
	}
	return m.state
}

func (m *Machine) handleBrowsing(ev Event) {
	slots := m.size + 1
	switch ev.Input {
	case InputUp:
		m.cursor = (m.cursor - 1 + slots) % slots
	case InputDown:
		m.cursor = (m.cursor + 1) % slots
	case InputConfirm:
		if m.size == 0 {
			return
		}
		if m.OnRandomSlot() {
			m.decide(m.randomIndex(), true, ReasonRandomSlot)
			return
		}
		m.decide(m.cursor, m.flags.ShuffleNext.Get(), ReasonPick)
	case InputToggleAutoplay:
		m.flags.AutoplayNext.Toggle()
	case InputToggleShuffle:
		m.flags.ShuffleNext.Toggle()
	case InputOpenOverlay:
		m.overlay.reset()
		m.state = OverlayEditing
	case InputCancel:
		m.state = Exiting
	}
}

func (m *Machine) handleOverlay(ev Event) {
	switch ev.Input {
	case InputText:
		m.overlay.insert(ev.Text)
	case InputBackspace:
		m.overlay.deleteBackward()
	case InputLeft:
		m.overlay.move(-1)
	case InputRight:
		m.overlay.move(1)
	case InputHome:
		m.overlay.cursor = 0
	case InputEnd:
		m.overlay.cursor = len(m.overlay.text)
	case InputConfirm:
		if idx, ok := m.search(m.overlay.String()); ok {
			m.cursor = idx
		}
		m.overlay.reset()
		m.state = Browsing
	case InputCancel:
		m.overlay.reset()
		m.state = Browsing
	}
}

// search finds the first label containing query, scanning from the entry
// after the cursor and wrapping around.
func (m *Machine) search(query string) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(m.labels) == 0 {
		return 0, false
	}
	n := len(m.labels)
	for k := 1; k <= n; k++ {
		i := (m.cursor + k) % n
		if strings.Contains(m.labels[i], q) {
			return i, true
		}
	}
	return 0, false
}

func (m *Machine) decide(start int, shuffle bool, reason Reason) {
	m.decision = Decision{Start: start, Shuffle: shuffle, Reason: reason}
	m.state = Deciding
}

func (m *Machine) randomIndex() int {
	if m.rng != nil {
		return m.rng.IntN(m.size)
	}
	return rand.IntN(m.size)
}
