package dma

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardnew/softdma/dma/hal"
	"github.com/ardnew/softdma/pkg"
)

// Engine hands out channel reservations on one controller and routes its
// interrupt line to the running session.
type Engine struct {
	ctrl   hal.Controller
	layout *hal.Layout

	mutex    sync.Mutex
	reserved uint32

	// active is the session that owns the status registers.
	active atomic.Pointer[Session]

	pollInterval time.Duration
}

// NewEngine creates an engine on ctrl and installs its interrupt handler.
// Clocks and pin routing for the controller must already be set up.
func NewEngine(ctrl hal.Controller) *Engine {
	e := &Engine{
		ctrl:   ctrl,
		layout: ctrl.Layout(),
	}
	ctrl.SetInterruptHandler(e.handleInterrupt)
	return e
}

// WithPollInterval sets the delay between status reads in poll mode. Zero
// yields to the scheduler between reads.
func (e *Engine) WithPollInterval(d time.Duration) *Engine {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.pollInterval = d
	return e
}

// Layout returns the controller's register layout.
func (e *Engine) Layout() *hal.Layout {
	return e.layout
}

// Open reserves the given channels for a new session.
//
// It fails with pkg.ErrChannelBusy if any channel belongs to another live
// session, running or not. Free channels still fail with
// pkg.ErrSessionPending while a running session has not produced its
// outcome.
func (e *Engine) Open(ids ...ChannelID) (*Session, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("open: no channels: %w", pkg.ErrInvalidChannel)
	}
	var mask uint32
	for _, id := range ids {
		if !e.layout.ValidChannel(int(id)) || mask&id.bit() != 0 {
			return nil, fmt.Errorf("open channel %d: %w", id, pkg.ErrInvalidChannel)
		}
		mask |= id.bit()
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if busy := e.reserved & mask; busy != 0 {
		return nil, fmt.Errorf("open channels %#b: %w", busy, pkg.ErrChannelBusy)
	}
	if a := e.active.Load(); a != nil && !a.outcome.Load().IsTerminal() {
		return nil, fmt.Errorf("open: %w", pkg.ErrSessionPending)
	}
	e.reserved |= mask

	s := newSession(e, mask, e.pollInterval)
	pkg.LogDebug(pkg.ComponentEngine, "session opened", "channels", pkg.Hex(mask))
	return s, nil
}

// Reserved returns the mask of channels held by live sessions.
func (e *Engine) Reserved() uint32 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.reserved
}

// activate makes s the owner of the status registers.
func (e *Engine) activate(s *Session) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if a := e.active.Load(); a != nil && a != s && !a.outcome.Load().IsTerminal() {
		return fmt.Errorf("start: %w", pkg.ErrSessionPending)
	}
	e.active.Store(s)
	return nil
}

// release returns the channels of s to the pool.
func (e *Engine) release(s *Session) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.reserved &^= s.channels
	e.active.CompareAndSwap(s, nil)
	pkg.LogDebug(pkg.ComponentEngine, "session released", "channels", pkg.Hex(s.channels))
}

// modify applies a read-modify-write to a shared register.
func (e *Engine) modify(reg hal.Reg, fn func(uint32) uint32) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.ctrl.Write(reg, fn(e.ctrl.Read(reg)))
}

// handleInterrupt runs in interrupt context: status decode and flag clear
// only.
func (e *Engine) handleInterrupt() {
	s := e.active.Load()
	if s == nil || s.mode != ModeInterrupt {
		pkg.LogDebug(pkg.ComponentEngine, "spurious interrupt")
		return
	}
	s.service()
}
