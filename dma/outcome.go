package dma

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softdma/pkg"
)

// OutcomeKind classifies how a session ended.
type OutcomeKind uint8

// Outcome kinds. Every kind except OutcomePending is terminal.
const (
	OutcomePending OutcomeKind = iota
	OutcomeDone
	OutcomeAbort
	OutcomeTimeout
	OutcomeUnrecognized
)

// String returns a human-readable kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeDone:
		return "done"
	case OutcomeAbort:
		return "abort"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Outcome is the completion classification of a session. The zero value is
// Pending. Only the field matching Kind is meaningful.
type Outcome struct {
	Kind     OutcomeKind
	Reason   uint32 // OutcomeAbort: abort status bits of the owned channels
	Channels uint32 // OutcomeTimeout: mask of timed-out channels
	Raw      uint32 // OutcomeUnrecognized: interrupt status as read
}

// Pending returns the non-terminal outcome.
func Pending() Outcome { return Outcome{} }

// Done returns a successful completion.
func Done() Outcome { return Outcome{Kind: OutcomeDone} }

// Abort returns an abort outcome carrying the abort status bits.
func Abort(reason uint32) Outcome { return Outcome{Kind: OutcomeAbort, Reason: reason} }

// Timeout returns a timeout outcome for the channels in mask.
func Timeout(channels uint32) Outcome { return Outcome{Kind: OutcomeTimeout, Channels: channels} }

// Unrecognized returns an outcome for a status word no rule matched.
func Unrecognized(raw uint32) Outcome { return Outcome{Kind: OutcomeUnrecognized, Raw: raw} }

// IsTerminal reports whether the outcome ends the session.
func (o Outcome) IsTerminal() bool {
	return o.Kind != OutcomePending
}

// String returns a human-readable outcome.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeAbort:
		return fmt.Sprintf("abort(%#x)", o.Reason)
	case OutcomeTimeout:
		return fmt.Sprintf("timeout(%#b)", o.Channels)
	case OutcomeUnrecognized:
		return fmt.Sprintf("unrecognized(%#x)", o.Raw)
	default:
		return o.Kind.String()
	}
}

// Err returns the error for a failed outcome, or nil for Done and Pending.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeAbort:
		return fmt.Errorf("abort status %#x: %w", o.Reason, pkg.ErrAborted)
	case OutcomeTimeout:
		return fmt.Errorf("channels %#b: %w", o.Channels, pkg.ErrTimeout)
	case OutcomeUnrecognized:
		return fmt.Errorf("interrupt status %#x: %w", o.Raw, pkg.ErrUnrecognized)
	default:
		return nil
	}
}

// Cell holds a session's outcome. It starts Pending and accepts exactly
// one terminal value; readers never observe a return to Pending.
//
// Set may be called from an interrupt handler: it never blocks.
type Cell struct {
	value atomic.Pointer[Outcome]
	once  sync.Once
	done  chan struct{}
}

// NewCell returns a Pending cell.
func NewCell() *Cell {
	return &Cell{done: make(chan struct{})}
}

// Load returns the current outcome.
func (c *Cell) Load() Outcome {
	if o := c.value.Load(); o != nil {
		return *o
	}
	return Pending()
}

// Set stores a terminal outcome. It returns false if o is Pending or the
// cell already holds a terminal outcome.
func (c *Cell) Set(o Outcome) bool {
	if !o.IsTerminal() {
		return false
	}
	if !c.value.CompareAndSwap(nil, &o) {
		return false
	}
	c.once.Do(func() { close(c.done) })
	return true
}

// Done returns a channel closed once the cell holds a terminal outcome.
func (c *Cell) Done() <-chan struct{} {
	return c.done
}
