package player

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tableflip.dev/reel/pkg/library"
	"tableflip.dev/reel/pkg/queue"
	"tableflip.dev/reel/pkg/session"
	"tableflip.dev/reel/pkg/store"
)

// Notifier tells the remote service a title was watched.
type Notifier interface {
	Watched(ctx context.Context, e library.Entry) error
}

// Recorder keeps the local play history.
type Recorder interface {
	Record(path string, at time.Time) (store.Record, error)
}

// Halt says why a run over the queue stopped.
type Halt int

const (
	// Exhausted means every entry of a non-wrapping queue played.
	Exhausted Halt = iota
	// Aborted means the player exited non-zero.
	Aborted
	// Stopped means a title finished with autoplay off.
	Stopped
	// Failed means the player could not be started.
	Failed
	// Cancelled means the context ended the run.
	Cancelled
)

func (h Halt) String() string {
	switch h {
	case Exhausted:
		return "exhausted"
	case Aborted:
		return "aborted"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome summarizes one Driver.Play call.
type Outcome struct {
	// Played counts clean exits.
	Played int
	Reason Halt
	Last   library.Entry
	// Err is set for Failed and Cancelled.
	Err error
}

// Driver plays queues one title at a time. Notifier and History are optional.
type Driver struct {
	Player   Player
	Notifier Notifier
	History  Recorder
	Flags    *session.Flags
	Log      zerolog.Logger
	Now      func() time.Time

	wg sync.WaitGroup
}

// Play walks q until a halt condition. A wrapping queue restarts from its head
// after the last entry, so only a non-zero exit, autoplay being off, or ctx
// ends it.
func (d *Driver) Play(ctx context.Context, q queue.Queue) Outcome {
	out := Outcome{Reason: Exhausted}
	if q.Len() == 0 {
		return out
	}

	for i := 0; ; i++ {
		if i == q.Len() {
			if !q.Wrap {
				return out
			}
			i = 0
		}
		e := q.Entries[i]
		out.Last = e

		if err := ctx.Err(); err != nil {
			out.Reason, out.Err = Cancelled, err
			return out
		}

		d.Log.Debug().Str("path", e.Path).Int("position", i).Msg("starting player")
		code, err := d.Player.Play(ctx, e.Path)
		switch {
		case err != nil && ctx.Err() != nil:
			out.Reason, out.Err = Cancelled, ctx.Err()
			return out
		case err != nil:
			d.Log.Warn().Err(err).Str("path", e.Path).Msg("player failed to start")
			out.Reason, out.Err = Failed, err
			return out
		case code != 0:
			d.Log.Debug().Int("code", code).Str("path", e.Path).Msg("player exited non-zero")
			out.Reason = Aborted
			return out
		}

		out.Played++
		d.record(e)
		d.notify(ctx, e)

		if !d.autoplay() {
			out.Reason = Stopped
			return out
		}
	}
}

// Wait blocks until pending watch notifications finished.
func (d *Driver) Wait() {
	d.wg.Wait()
}

func (d *Driver) autoplay() bool {
	if d.Flags == nil {
		return true
	}
	return d.Flags.AutoplayNext.Get()
}

func (d *Driver) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *Driver) record(e library.Entry) {
	if d.History == nil {
		return
	}
	if _, err := d.History.Record(e.Path, d.now()); err != nil {
		d.Log.Warn().Err(err).Str("path", e.Path).Msg("record history")
	}
}

// notify is best effort and never delays the next title.
func (d *Driver) notify(ctx context.Context, e library.Entry) {
	if d.Notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.Notifier.Watched(ctx, e); err != nil {
			d.Log.Debug().Err(err).Str("path", e.Path).Msg("watch notification failed")
		}
	}()
}
