package dma

import (
	"github.com/ardnew/softdma/dma/hal"
	"github.com/ardnew/softdma/pkg"
)

// Decoder classifies status snapshots for the channels of one session.
//
// Decode is pure: it has no side effects and does not depend on whether it
// runs in an interrupt handler or a poll loop.
type Decoder struct {
	Layout   *hal.Layout
	Channels uint32 // owned channels; all must report done for Done
}

// Decode classifies s. Rules are tried in order and the first match wins:
//
//  1. Abort flag with abort bits on owned channels: Abort. Abort bits on
//     other channels are noise and fall through.
//  2. Done bits on every owned channel: Done. A partial set is Pending.
//  3. Timeout bits on owned channels: Timeout.
//  4. Any other interrupt status bit: Unrecognized.
func (d Decoder) Decode(s hal.Status) Outcome {
	l := d.Layout
	if s.Int&l.IntAbort != 0 {
		if reason := s.Abort & d.Channels; reason != 0 {
			return Abort(reason)
		}
	}
	if d.Channels != 0 && s.Done&d.Channels == d.Channels {
		return Done()
	}
	if mask := l.TimeoutChannels(s.Int) & d.Channels; mask != 0 {
		return Timeout(mask)
	}
	if s.Int&^(l.IntAbort|l.IntDone) != 0 {
		return Unrecognized(s.Int)
	}
	return Pending()
}

// Demux owns the read-decode-clear sequence on a controller's status
// registers. Nothing else in the engine reads or clears them.
type Demux struct {
	ctrl    hal.Controller
	decoder Decoder
}

// NewDemux creates a demultiplexer for the channels in mask.
func NewDemux(ctrl hal.Controller, channels uint32) *Demux {
	return &Demux{
		ctrl:    ctrl,
		decoder: Decoder{Layout: ctrl.Layout(), Channels: channels},
	}
}

// Snapshot reads the status registers.
func (m *Demux) Snapshot() hal.Status {
	l := m.decoder.Layout
	return hal.Status{
		Int:   m.ctrl.Read(l.InterruptStatus),
		Abort: m.ctrl.Read(l.AbortStatus),
		Done:  m.ctrl.Read(l.DoneStatus),
	}
}

// Service takes a snapshot, decodes it, and clears the bits that produced
// the outcome. A Pending result clears nothing, so a single done flag stays
// set until its pair arrives.
func (m *Demux) Service() Outcome {
	s := m.Snapshot()
	o := m.decoder.Decode(s)
	m.clear(o)
	if o.IsTerminal() && pkg.DebugEnabled() {
		pkg.LogDebug(pkg.ComponentDemux, "status decoded",
			"int", pkg.Hex(s.Int), "abort", pkg.Hex(s.Abort), "done", pkg.Hex(s.Done),
			"outcome", o.String())
	}
	return o
}

func (m *Demux) clear(o Outcome) {
	l := m.decoder.Layout
	switch o.Kind {
	case OutcomeAbort:
		m.ctrl.Write(l.AbortStatus, o.Reason)
	case OutcomeDone:
		// Both flags go together.
		m.ctrl.Write(l.DoneStatus, m.decoder.Channels)
	case OutcomeTimeout:
		m.ctrl.Write(l.InterruptStatus, l.TimeoutBits(o.Channels))
	case OutcomeUnrecognized:
		m.ctrl.Write(l.InterruptStatus, o.Raw)
	}
}
