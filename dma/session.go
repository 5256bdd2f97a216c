package dma

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ardnew/softdma/dma/hal"
	"github.com/ardnew/softdma/pkg"
)

const component = pkg.ComponentSession

// State is the lifecycle state of a session.
type State uint8

// Session states. Completed, Aborted, TimedOut and Faulted are terminal.
const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
	StateTimedOut
	StateFaulted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateTimedOut:
		return "timed out"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Mode selects how completion is observed.
type Mode uint8

// Completion modes. Both run the same demultiplexer.
const (
	ModeInterrupt Mode = iota // Interrupt handler services status
	ModePoll                  // Wait services status inline
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	if m == ModePoll {
		return "poll"
	}
	return "interrupt"
}

type addresses struct {
	src, dst uint32
	set      bool
}

// Session is one transfer over a set of reserved channels.
//
// Configuration flows Configure, SetAddresses, Arm, Start; the session then
// runs autonomously until the demultiplexer records a terminal outcome.
// Close releases the channels.
type Session struct {
	engine   *Engine
	ctrl     hal.Controller
	layout   *hal.Layout
	channels uint32

	mutex   sync.Mutex
	mode    Mode
	configs map[ChannelID]ChannelConfig
	addrs   map[ChannelID]addresses
	armed   bool
	started bool
	closed  bool
	err     error // configuration error that discarded the session

	demux        *Demux
	outcome      *Cell
	pollInterval time.Duration
}

func newSession(e *Engine, channels uint32, poll time.Duration) *Session {
	return &Session{
		engine:       e,
		ctrl:         e.ctrl,
		layout:       e.layout,
		channels:     channels,
		configs:      make(map[ChannelID]ChannelConfig),
		addrs:        make(map[ChannelID]addresses),
		demux:        NewDemux(e.ctrl, channels),
		outcome:      NewCell(),
		pollInterval: poll,
	}
}

// Channels returns the mask of channels owned by the session.
func (s *Session) Channels() uint32 {
	return s.channels
}

func (s *Session) owns(id ChannelID) bool {
	return s.layout.ValidChannel(int(id)) && s.channels&id.bit() != 0
}

// usable reports why the session cannot be reconfigured, if it cannot.
func (s *Session) usable() error {
	switch {
	case s.err != nil:
		return fmt.Errorf("%w: %w", pkg.ErrSessionDiscarded, s.err)
	case s.closed:
		return fmt.Errorf("session closed: %w", pkg.ErrInvalidState)
	case s.armed:
		return fmt.Errorf("session armed: %w", pkg.ErrInvalidState)
	}
	return nil
}

// SetMode selects interrupt or poll completion. Only allowed before Arm.
func (s *Session) SetMode(m Mode) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if m != ModeInterrupt && m != ModePoll {
		return fmt.Errorf("mode %d: %w", m, pkg.ErrInvalidParameter)
	}
	s.mode = m
	return nil
}

// Mode returns the completion mode.
func (s *Session) Mode() Mode {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.mode
}

// Configure validates and records the configuration of one owned channel.
// Any error discards the session.
func (s *Session) Configure(cfg ChannelConfig) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	err := cfg.validate(s.layout)
	if err == nil && !s.owns(cfg.Channel) {
		err = fmt.Errorf("configure channel %d: not owned: %w", cfg.Channel, pkg.ErrInvalidChannel)
	}
	if err != nil {
		s.err = err
		pkg.LogWarn(component, "configuration rejected", "channel", cfg.Channel, "error", err)
		return err
	}
	s.configs[cfg.Channel] = cfg
	return nil
}

// SetAddresses binds the source and destination of a configured channel.
// Each incrementing side must be aligned to the channel's data width.
func (s *Session) SetAddresses(id ChannelID, src, dst uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if !s.owns(id) {
		return fmt.Errorf("set addresses channel %d: %w", id, pkg.ErrInvalidChannel)
	}
	cfg, ok := s.configs[id]
	if !ok {
		return fmt.Errorf("set addresses channel %d: %w", id, pkg.ErrNotConfigured)
	}
	align := cfg.Width.Bytes() - 1
	if (cfg.SrcMode == AddressIncrement && src&align != 0) ||
		(cfg.DstMode == AddressIncrement && dst&align != 0) {
		return fmt.Errorf("channel %d: src %#x dst %#x width %d: %w",
			id, src, dst, cfg.Width, pkg.ErrInvalidAddress)
	}
	s.addrs[id] = addresses{src: src, dst: dst, set: true}
	return nil
}

// Arm writes every owned channel's descriptor to hardware and enables the
// channels. Repeated calls before Start do nothing.
func (s *Session) Arm() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.armLocked()
}

func (s *Session) armLocked() error {
	if s.armed && !s.started && !s.closed && s.err == nil {
		return nil
	}
	if s.started {
		return fmt.Errorf("arm: %w", pkg.ErrInvalidState)
	}
	if err := s.usable(); err != nil {
		return err
	}

	l := s.layout
	var timeouts uint32
	for ch := 0; ch < l.Channels; ch++ {
		id := ChannelID(ch)
		if !s.owns(id) {
			continue
		}
		cfg, ok := s.configs[id]
		a := s.addrs[id]
		if !ok || !a.set {
			return fmt.Errorf("arm channel %d: %w", id, pkg.ErrNotConfigured)
		}
		s.ctrl.Write(l.ControlReg(ch), cfg.control(l))
		s.ctrl.Write(l.SourceReg(ch), a.src)
		s.ctrl.Write(l.DestinationReg(ch), a.dst)
		if l.RequestPerReg > 0 {
			reg, f := l.RequestSelectAt(ch)
			s.engine.modify(reg, func(v uint32) uint32 { return f.Set(v, uint32(cfg.Request)) })
		}
		if cfg.Timeout != 0 {
			reg, f, _ := l.TimeoutCounterAt(ch)
			s.engine.modify(reg, func(v uint32) uint32 { return f.Set(v, cfg.Timeout) })
			timeouts |= id.bit()
		}
	}

	// Flags left over from an earlier session on these channels.
	s.ctrl.Write(l.AbortStatus, s.channels)
	s.ctrl.Write(l.DoneStatus, s.channels)
	s.ctrl.Write(l.InterruptStatus, l.TimeoutBits(s.channels))

	set := func(mask uint32) func(uint32) uint32 {
		return func(v uint32) uint32 { return v | mask }
	}
	clr := func(mask uint32) func(uint32) uint32 {
		return func(v uint32) uint32 { return v &^ mask }
	}
	s.engine.modify(l.TimeoutEnable, clr(s.channels))
	s.engine.modify(l.TimeoutEnable, set(timeouts))
	if s.mode == ModeInterrupt {
		s.engine.modify(l.InterruptEnable, set(s.channels))
		s.engine.modify(l.TimeoutInterruptEnable, set(timeouts))
	} else {
		s.engine.modify(l.InterruptEnable, clr(s.channels))
		s.engine.modify(l.TimeoutInterruptEnable, clr(s.channels))
	}
	s.engine.modify(l.ChannelEnable, set(s.channels))

	s.armed = true
	pkg.LogDebug(component, "session armed", "channels", s.channels, "mode", s.mode.String())
	return nil
}

// Start arms the session if needed and triggers its channels. The hardware
// proceeds without further engine involvement.
func (s *Session) Start() error {
	s.mutex.Lock()
	if s.started {
		s.mutex.Unlock()
		return fmt.Errorf("start: already started: %w", pkg.ErrInvalidState)
	}
	if err := s.armLocked(); err != nil {
		s.mutex.Unlock()
		return err
	}
	if err := s.engine.activate(s); err != nil {
		s.mutex.Unlock()
		return err
	}
	s.started = true
	s.mutex.Unlock()

	pkg.LogDebug(component, "session started", "channels", s.channels)
	s.ctrl.Trigger(s.channels)
	return nil
}

// Abort asks the hardware to stop the session's channels. The abort is
// reported through the status registers like any other outcome, so the
// caller must still Wait.
func (s *Session) Abort() error {
	s.mutex.Lock()
	started := s.started
	s.mutex.Unlock()
	if !started {
		return fmt.Errorf("abort: not started: %w", pkg.ErrInvalidState)
	}
	if s.outcome.Load().IsTerminal() {
		return nil
	}
	pkg.LogDebug(component, "abort requested", "channels", s.channels)
	s.ctrl.Write(s.layout.Stop, s.channels)
	return nil
}

// service runs the demultiplexer once and records a terminal outcome.
func (s *Session) service() Outcome {
	if o := s.outcome.Load(); o.IsTerminal() {
		return o
	}
	o := s.demux.Service()
	if !o.IsTerminal() {
		return o
	}
	if s.outcome.Set(o) {
		if o.Kind == OutcomeUnrecognized {
			pkg.LogWarn(component, "unrecognized status", "raw", pkg.Hex(o.Raw))
		}
		return o
	}
	return s.outcome.Load()
}

// Poll runs the demultiplexer inline in poll mode. In interrupt mode it
// only reads the outcome recorded by the handler.
func (s *Session) Poll() Outcome {
	s.mutex.Lock()
	mode, started := s.mode, s.started
	s.mutex.Unlock()
	if !started || mode != ModePoll {
		return s.outcome.Load()
	}
	return s.service()
}

// Outcome returns the recorded outcome without touching hardware.
func (s *Session) Outcome() Outcome {
	return s.outcome.Load()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mutex.Lock()
	started := s.started
	s.mutex.Unlock()
	if !started {
		return StateIdle
	}
	switch s.outcome.Load().Kind {
	case OutcomeDone:
		return StateCompleted
	case OutcomeAbort:
		return StateAborted
	case OutcomeTimeout:
		return StateTimedOut
	case OutcomeUnrecognized:
		return StateFaulted
	default:
		return StateRunning
	}
}

// Wait blocks until the session reaches a terminal outcome or ctx is done.
// The engine enforces no deadline of its own; pass a context with a timeout
// to bound the wait.
func (s *Session) Wait(ctx context.Context) (Outcome, error) {
	s.mutex.Lock()
	mode, started := s.mode, s.started
	s.mutex.Unlock()
	if !started {
		return Pending(), fmt.Errorf("wait: not started: %w", pkg.ErrInvalidState)
	}

	if mode == ModeInterrupt {
		select {
		case <-s.outcome.Done():
			return s.outcome.Load(), nil
		case <-ctx.Done():
			if o := s.outcome.Load(); o.IsTerminal() {
				return o, nil
			}
			return Pending(), ctx.Err()
		}
	}

	var tick <-chan time.Time
	if s.pollInterval > 0 {
		t := time.NewTicker(s.pollInterval)
		defer t.Stop()
		tick = t.C
	}
	for {
		if o := s.service(); o.IsTerminal() {
			return o, nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return Pending(), ctx.Err()
			case <-tick:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return Pending(), ctx.Err()
		default:
			runtime.Gosched()
		}
	}
}

// Close disables the session's channels and releases them. A running
// session must reach its outcome first.
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil
	}
	if s.started && !s.outcome.Load().IsTerminal() {
		return fmt.Errorf("close: %w", pkg.ErrSessionPending)
	}

	if s.armed {
		l := s.layout
		clr := func(v uint32) uint32 { return v &^ s.channels }
		s.engine.modify(l.ChannelEnable, clr)
		s.engine.modify(l.InterruptEnable, clr)
		s.engine.modify(l.TimeoutEnable, clr)
		s.engine.modify(l.TimeoutInterruptEnable, clr)
	}
	s.closed = true
	s.engine.release(s)
	return nil
}
