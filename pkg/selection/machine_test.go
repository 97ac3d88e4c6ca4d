package selection

import (
	"math/rand/v2"
	"testing"
	"time"

	"tableflip.dev/reel/pkg/session"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newMachine(t *testing.T, size int) (*Machine, *fakeClock, *session.Flags) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)}
	flags := session.NewFlags(true, false)
	labels := make([]string, size)
	for i := range labels {
		labels[i] = string(rune('a' + i))
	}
	m := New(Options{
		Size:   size,
		Labels: labels,
		Flags:  flags,
		Now:    clock.Now,
		Rand:   rand.New(rand.NewPCG(3, 5)),
	})
	return m, clock, flags
}

func press(m *Machine, in Input) State {
	return m.Handle(Event{Input: in})
}

func TestCursorWraps(t *testing.T) {
	m, _, _ := newMachine(t, 3)
	press(m, InputUp)
	if m.Cursor() != 3 || !m.OnRandomSlot() {
		t.Fatalf("expected up from 0 to land on the random slot, got %d", m.Cursor())
	}
	press(m, InputDown)
	if m.Cursor() != 0 {
		t.Fatalf("expected down from the random slot to wrap to 0, got %d", m.Cursor())
	}
	for i := 0; i < 4; i++ {
		press(m, InputDown)
	}
	if m.Cursor() != 0 {
		t.Fatalf("expected a full cycle to return to 0, got %d", m.Cursor())
	}
}

func TestConfirmPicksCursor(t *testing.T) {
	m, _, flags := newMachine(t, 4)
	press(m, InputDown)
	press(m, InputDown)
	if s := press(m, InputConfirm); s != Deciding {
		t.Fatalf("expected deciding, got %v", s)
	}
	d, ok := m.Decision()
	if !ok || d.Start != 2 || d.Shuffle || d.Reason != ReasonPick {
		t.Fatalf("unexpected decision %+v", d)
	}

	m, _, flags = newMachine(t, 4)
	flags.ShuffleNext.Set(true)
	press(m, InputConfirm)
	if d, _ := m.Decision(); !d.Shuffle || d.Start != 0 {
		t.Fatalf("expected shuffle toggle to carry into the decision, got %+v", d)
	}
}

func TestConfirmRandomSlotForcesShuffle(t *testing.T) {
	for i := 0; i < 50; i++ {
		m, _, flags := newMachine(t, 5)
		flags.ShuffleNext.Set(false)
		press(m, InputUp)
		press(m, InputConfirm)
		d, ok := m.Decision()
		if !ok {
			t.Fatalf("expected a decision")
		}
		if !d.Shuffle || d.Reason != ReasonRandomSlot {
			t.Fatalf("expected forced shuffle from the random slot, got %+v", d)
		}
		if d.Start < 0 || d.Start >= 5 {
			t.Fatalf("start %d out of range", d.Start)
		}
	}
}

func TestConfirmOnEmptyCatalogIsIgnored(t *testing.T) {
	m, _, _ := newMachine(t, 0)
	if s := press(m, InputConfirm); s != Browsing {
		t.Fatalf("expected to stay browsing, got %v", s)
	}
}

func TestTogglesDoNotChangeState(t *testing.T) {
	m, _, flags := newMachine(t, 2)
	press(m, InputToggleAutoplay)
	press(m, InputToggleShuffle)
	if m.State() != Browsing {
		t.Fatalf("expected browsing, got %v", m.State())
	}
	if flags.AutoplayNext.Get() || !flags.ShuffleNext.Get() {
		t.Fatalf("expected toggles to flip, got autoplay=%v shuffle=%v", flags.AutoplayNext.Get(), flags.ShuffleNext.Get())
	}
	snap := m.Snapshot()
	if snap.AutoplayNext || !snap.ShuffleNext {
		t.Fatalf("snapshot does not reflect toggles: %+v", snap)
	}
}

func TestCancelExits(t *testing.T) {
	m, _, _ := newMachine(t, 2)
	if s := press(m, InputCancel); s != Exiting {
		t.Fatalf("expected exiting, got %v", s)
	}
	if _, ok := m.Decision(); ok {
		t.Fatalf("exiting must not carry a decision")
	}
	if s := press(m, InputDown); s != Exiting || m.Cursor() != 0 {
		t.Fatalf("terminal state must ignore input")
	}
}

func TestIdleTimeoutPicksAtRandom(t *testing.T) {
	m, clock, _ := newMachine(t, 5)
	clock.Advance(29 * time.Second)
	if s := m.Tick(); s != Browsing {
		t.Fatalf("fired early: %v", s)
	}
	clock.Advance(time.Second)
	if s := m.Tick(); s != Deciding {
		t.Fatalf("expected deciding after 30s idle, got %v", s)
	}
	d, _ := m.Decision()
	if !d.Shuffle || d.Reason != ReasonIdle {
		t.Fatalf("expected forced shuffle, got %+v", d)
	}
	if d.Start < 0 || d.Start >= 5 {
		t.Fatalf("start %d out of range", d.Start)
	}
}

func TestIdleClockRearmsOnAnyInput(t *testing.T) {
	m, clock, _ := newMachine(t, 5)
	clock.Advance(20 * time.Second)
	press(m, InputToggleAutoplay)
	clock.Advance(20 * time.Second)
	if s := m.Tick(); s != Browsing {
		t.Fatalf("expected input to re-arm the idle clock, got %v", s)
	}

	press(m, InputOpenOverlay)
	clock.Advance(time.Minute)
	if s := m.Tick(); s != OverlayEditing {
		t.Fatalf("idle must not fire while the overlay is open, got %v", s)
	}
	m.Handle(Event{Input: InputText, Text: "x"})
	press(m, InputCancel)
	clock.Advance(29 * time.Second)
	if s := m.Tick(); s != Browsing {
		t.Fatalf("overlay input should have re-armed the clock, got %v", s)
	}
	clock.Advance(time.Second)
	if s := m.Tick(); s != Deciding {
		t.Fatalf("expected deciding, got %v", s)
	}
}

func TestIdleDisabled(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := New(Options{Size: 3, IdleTimeout: -1, Now: clock.Now})
	clock.Advance(time.Hour)
	if s := m.Tick(); s != Browsing {
		t.Fatalf("expected idle pick disabled, got %v", s)
	}
	if m.IdleRemaining() >= 0 {
		t.Fatalf("expected negative remaining when disabled")
	}
	if w := m.NextWait(100 * time.Millisecond); w != 100*time.Millisecond {
		t.Fatalf("expected full quantum, got %v", w)
	}
}

func TestNextWaitBoundedByIdleBudget(t *testing.T) {
	m, clock, _ := newMachine(t, 2)
	q := 100 * time.Millisecond
	if w := m.NextWait(q); w != q {
		t.Fatalf("expected quantum, got %v", w)
	}
	clock.Advance(30*time.Second - 40*time.Millisecond)
	if w := m.NextWait(q); w != 40*time.Millisecond {
		t.Fatalf("expected remaining idle budget, got %v", w)
	}
	clock.Advance(time.Second)
	if w := m.NextWait(q); w != 0 {
		t.Fatalf("expected zero wait once overdue, got %v", w)
	}
}

func TestOverlayEditing(t *testing.T) {
	m, _, _ := newMachine(t, 2)
	press(m, InputOpenOverlay)
	if m.State() != OverlayEditing {
		t.Fatalf("expected overlay, got %v", m.State())
	}
	m.Handle(Event{Input: InputText, Text: "cat"})
	press(m, InputLeft)
	m.Handle(Event{Input: InputText, Text: "r"})
	snap := m.Snapshot()
	if snap.OverlayText != "cart" || snap.OverlayCursor != 3 {
		t.Fatalf("unexpected overlay %q@%d", snap.OverlayText, snap.OverlayCursor)
	}
	press(m, InputHome)
	press(m, InputBackspace)
	if snap = m.Snapshot(); snap.OverlayText != "cart" || snap.OverlayCursor != 0 {
		t.Fatalf("backspace at 0 must be a no-op, got %q@%d", snap.OverlayText, snap.OverlayCursor)
	}
	press(m, InputEnd)
	press(m, InputBackspace)
	if snap = m.Snapshot(); snap.OverlayText != "car" || snap.OverlayCursor != 3 {
		t.Fatalf("unexpected overlay %q@%d", snap.OverlayText, snap.OverlayCursor)
	}
	press(m, InputRight)
	if m.Snapshot().OverlayCursor != 3 {
		t.Fatalf("cursor must stay within the text")
	}
	before, after := m.OverlayParts()
	if before != "car" || after != "" {
		t.Fatalf("unexpected parts %q %q", before, after)
	}
}

func TestOverlayGraphemes(t *testing.T) {
	m, _, _ := newMachine(t, 1)
	press(m, InputOpenOverlay)
	// e + combining acute, then a flag made of two regional indicators.
	m.Handle(Event{Input: InputText, Text: "e\u0301"})
	m.Handle(Event{Input: InputText, Text: "\U0001F1E9\U0001F1EA"})
	if c := m.Snapshot().OverlayCursor; c != 2 {
		t.Fatalf("expected cursor after two graphemes, got %d", c)
	}
	press(m, InputBackspace)
	if s := m.Snapshot(); s.OverlayText != "e\u0301" || s.OverlayCursor != 1 {
		t.Fatalf("expected flag removed as a unit, got %q@%d", s.OverlayText, s.OverlayCursor)
	}
}

func TestOverlayCancelKeepsSelection(t *testing.T) {
	m, _, _ := newMachine(t, 4)
	press(m, InputDown)
	press(m, InputOpenOverlay)
	m.Handle(Event{Input: InputText, Text: "d"})
	if s := press(m, InputCancel); s != Browsing {
		t.Fatalf("expected browsing, got %v", s)
	}
	snap := m.Snapshot()
	if snap.Cursor != 1 || snap.OverlayText != "" || snap.OverlayOpen {
		t.Fatalf("unexpected snapshot after cancel: %+v", snap)
	}
}

func TestOverlayConfirmJumps(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := New(Options{
		Size:   4,
		Labels: []string{"Alien", "Brazil", "Aliens", "Heat"},
		Now:    clock.Now,
	})
	press(m, InputOpenOverlay)
	m.Handle(Event{Input: InputText, Text: "ALI"})
	press(m, InputConfirm)
	if m.State() != Browsing || m.Cursor() != 2 {
		t.Fatalf("expected jump to the next match after the cursor, got %v@%d", m.State(), m.Cursor())
	}
	press(m, InputOpenOverlay)
	m.Handle(Event{Input: InputText, Text: "ali"})
	press(m, InputConfirm)
	if m.Cursor() != 0 {
		t.Fatalf("expected search to wrap, got %d", m.Cursor())
	}
	press(m, InputOpenOverlay)
	m.Handle(Event{Input: InputText, Text: "zzz"})
	press(m, InputConfirm)
	if m.Cursor() != 0 {
		t.Fatalf("expected cursor unchanged on miss, got %d", m.Cursor())
	}
}

func TestQuitFromOverlay(t *testing.T) {
	m, _, _ := newMachine(t, 2)
	press(m, InputOpenOverlay)
	if s := press(m, InputQuit); s != Exiting {
		t.Fatalf("expected exiting, got %v", s)
	}
}
