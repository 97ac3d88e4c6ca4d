// Package session holds the state shared by every screen and playback run of
// one kiosk process.
package session

import "sync/atomic"

// Toggle is a boolean setting the operator can flip at any time.
type Toggle interface {
	Get() bool
	Set(v bool)
	Toggle() bool
}

// Flag is a Toggle safe for concurrent use.
type Flag struct {
	v atomic.Bool
}

// NewFlag returns a Flag holding initial.
func NewFlag(initial bool) *Flag {
	f := &Flag{}
	f.v.Store(initial)
	return f
}

func (f *Flag) Get() bool {
	return f.v.Load()
}

func (f *Flag) Set(v bool) {
	f.v.Store(v)
}

// Toggle flips the flag and returns the new value.
func (f *Flag) Toggle() bool {
	for {
		old := f.v.Load()
		if f.v.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Flags are the operator toggles read at decision and continuation time.
type Flags struct {
	// AutoplayNext continues to the next queued title after a clean exit.
	AutoplayNext Toggle
	// ShuffleNext shuffles the queue built from an explicit pick.
	ShuffleNext Toggle
}

// NewFlags returns Flags with the given initial values.
func NewFlags(autoplay, shuffle bool) *Flags {
	return &Flags{
		AutoplayNext: NewFlag(autoplay),
		ShuffleNext:  NewFlag(shuffle),
	}
}
