package sim

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ardnew/softdma/dma/hal"
	"github.com/ardnew/softdma/pkg"
)

const component = pkg.ComponentSim

// Default memory window of the simulated bus.
const (
	DefaultMemoryBase uint32 = 0x2000_0000
	DefaultMemorySize uint32 = 0x0002_0000
)

// Config configures a simulated controller.
type Config struct {
	// Layout is the register map to emulate. Defaults to hal.M480().
	Layout *hal.Layout

	// Tick is the period between channel steps in Run. Zero steps as fast
	// as the scheduler allows.
	Tick time.Duration

	// MemoryBase and MemorySize bound the addresses handed out by Map.
	MemoryBase uint32
	MemorySize uint32
}

// Device is a peripheral data register reachable by a channel.
type Device interface {
	// ReadData returns the next element. ok is false when no data is ready,
	// which stalls the channel without consuming the request.
	ReadData(width int) (v uint32, ok bool)

	// WriteData accepts an element. Returning false signals a bus error.
	WriteData(width int, v uint32) bool
}

type channel struct {
	active    bool
	src, dst  uint32
	remaining uint32
	idle      uint32
}

// Controller is a simulated DMA controller implementing hal.Controller and
// hal.Memory.
//
// Channels run autonomously once triggered: each Step moves one request
// (one element, or one burst) per active channel. Run drives Step on its own
// goroutine, standing in for the hardware's independent bus master.
type Controller struct {
	cfg    Config
	layout *hal.Layout

	mutex       sync.Mutex
	regs        map[hal.Reg]uint32
	abort       uint32 // per-channel abort flags
	done        uint32 // per-channel done flags
	timeouts    uint32 // InterruptStatus timeout bits
	extra       uint32 // injected InterruptStatus bits with no modeled source
	channels    []channel
	pending     bool // interrupt raised but not yet dispatched
	dispatching bool // a goroutine is running the handler loop

	// Memory
	regions []region
	next    uint32
	devices map[uint32]Device

	irqMutex sync.Mutex // serializes handler invocations
	handler  func()
	onStart  func(channels uint32)

	wake chan struct{}
}

// New creates a simulated controller.
func New(cfg Config) *Controller {
	if cfg.Layout == nil {
		cfg.Layout = hal.M480()
	}
	if cfg.MemoryBase == 0 {
		cfg.MemoryBase = DefaultMemoryBase
	}
	if cfg.MemorySize == 0 {
		cfg.MemorySize = DefaultMemorySize
	}
	return &Controller{
		cfg:      cfg,
		layout:   cfg.Layout,
		regs:     make(map[hal.Reg]uint32),
		channels: make([]channel, cfg.Layout.Channels),
		next:     cfg.MemoryBase,
		devices:  make(map[uint32]Device),
		wake:     make(chan struct{}, 1),
	}
}

// Layout implements hal.Controller.
func (c *Controller) Layout() *hal.Layout {
	return c.layout
}

// Read implements hal.Controller.
func (c *Controller) Read(reg hal.Reg) uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.readLocked(reg)
}

func (c *Controller) readLocked(reg hal.Reg) uint32 {
	l := c.layout
	switch reg {
	case l.InterruptStatus:
		v := c.timeouts | c.extra
		if c.abort != 0 {
			v |= l.IntAbort
		}
		if c.done != 0 {
			v |= l.IntDone
		}
		return v
	case l.AbortStatus:
		return c.abort
	case l.DoneStatus:
		return c.done
	}
	return c.regs[reg]
}

// Write implements hal.Controller.
func (c *Controller) Write(reg hal.Reg, value uint32) {
	c.mutex.Lock()
	l := c.layout
	switch reg {
	case l.InterruptStatus:
		// Abort and done summaries follow their status registers.
		c.timeouts &^= value
		c.extra &^= value
	case l.AbortStatus:
		c.abort &^= value
	case l.DoneStatus:
		c.done &^= value
	case l.Stop:
		c.stopLocked(value)
	case l.ChannelEnable:
		c.regs[reg] = value
		for ch := range c.channels {
			if value&(1<<uint(ch)) == 0 {
				c.channels[ch].active = false
			}
		}
	default:
		c.regs[reg] = value
	}
	c.mutex.Unlock()
	c.dispatch()
}

// stopLocked halts the channels in mask and reports them as aborted.
func (c *Controller) stopLocked(mask uint32) {
	for ch := range c.channels {
		bit := uint32(1) << uint(ch)
		if mask&bit == 0 || !c.channels[ch].active {
			continue
		}
		c.channels[ch].active = false
		c.abort |= bit
		pkg.LogDebug(component, "channel stopped", "channel", ch)
		c.raiseLocked(bit)
	}
}

// Trigger implements hal.Controller.
func (c *Controller) Trigger(channels uint32) {
	c.mutex.Lock()
	l := c.layout
	enabled := c.regs[l.ChannelEnable]
	var started uint32
	for ch := range c.channels {
		bit := uint32(1) << uint(ch)
		if channels&bit == 0 || enabled&bit == 0 {
			continue
		}
		ctl := c.regs[l.ControlReg(ch)]
		if l.OpMode.Get(ctl) != l.OpModeBasic {
			continue
		}
		c.channels[ch] = channel{
			active:    true,
			src:       c.regs[l.SourceReg(ch)],
			dst:       c.regs[l.DestinationReg(ch)],
			remaining: l.Count.Get(ctl) + l.CountBias,
		}
		started |= bit
	}
	hook := c.onStart
	c.mutex.Unlock()

	pkg.LogDebug(component, "channels triggered", "mask", started)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	if hook != nil {
		hook(started)
	}
}

// SetInterruptHandler implements hal.Controller.
func (c *Controller) SetInterruptHandler(handler func()) {
	c.irqMutex.Lock()
	defer c.irqMutex.Unlock()
	c.handler = handler
}

// OnTrigger installs a hook invoked after each Trigger with the mask of
// channels that actually started. Tests use it to inject faults at a
// deterministic point.
func (c *Controller) OnTrigger(hook func(channels uint32)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onStart = hook
}

// Inject sets status bits as if the hardware had raised them, then fires
// the interrupt line.
func (c *Controller) Inject(s hal.Status) {
	c.mutex.Lock()
	l := c.layout
	c.abort |= s.Abort
	c.done |= s.Done
	timeouts := l.TimeoutBits(l.ChannelMask())
	c.timeouts |= s.Int & timeouts
	c.extra |= s.Int &^ timeouts
	c.pending = true
	c.mutex.Unlock()
	c.dispatch()
}

// raiseLocked marks the interrupt line pending if any channel in mask has
// its interrupt enabled.
func (c *Controller) raiseLocked(mask uint32) {
	if c.regs[c.layout.InterruptEnable]&mask != 0 {
		c.pending = true
	}
}

func (c *Controller) raiseTimeoutLocked(mask uint32) {
	if c.regs[c.layout.TimeoutInterruptEnable]&mask != 0 {
		c.pending = true
	}
}

// dispatch runs the interrupt handler once per raised edge. Edges raised
// while a handler runs, including by the handler itself, are serviced by the
// dispatching goroutine before it returns.
func (c *Controller) dispatch() {
	c.mutex.Lock()
	if c.dispatching {
		c.mutex.Unlock()
		return
	}
	c.dispatching = true
	for c.pending {
		c.pending = false
		c.mutex.Unlock()
		c.irqMutex.Lock()
		if c.handler != nil {
			c.handler()
		}
		c.irqMutex.Unlock()
		c.mutex.Lock()
	}
	c.dispatching = false
	c.mutex.Unlock()
}

// Active returns the mask of channels still transferring.
func (c *Controller) Active() uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	var mask uint32
	for ch := range c.channels {
		if c.channels[ch].active {
			mask |= 1 << uint(ch)
		}
	}
	return mask
}

// Step advances every active channel by one request and reports whether
// any channel remains active.
func (c *Controller) Step() bool {
	c.mutex.Lock()
	busy := false
	for ch := range c.channels {
		if c.channels[ch].active {
			c.stepLocked(ch)
			busy = busy || c.channels[ch].active
		}
	}
	c.mutex.Unlock()
	c.dispatch()
	return busy
}

func (c *Controller) stepLocked(ch int) {
	l := c.layout
	st := &c.channels[ch]
	bit := uint32(1) << uint(ch)
	ctl := c.regs[l.ControlReg(ch)]

	width, _ := l.WidthBits(l.Width.Get(ctl))
	size := uint32(width / 8)
	n := uint32(1)
	if l.TxType.Get(ctl) == l.TxTypeBurst {
		n = l.BurstLength(l.BurstSize.Get(ctl))
	}

	for i := uint32(0); i < n && st.remaining > 0; i++ {
		v, ok, fault := c.loadLocked(st.src, width)
		if fault {
			c.busErrorLocked(ch)
			return
		}
		if !ok {
			if i == 0 {
				c.idleLocked(ch)
			}
			break
		}
		if !c.storeLocked(st.dst, width, v) {
			c.busErrorLocked(ch)
			return
		}
		st.idle = 0
		if l.SrcInc.Get(ctl) == l.IncEnabled {
			st.src += size
		}
		if l.DstInc.Get(ctl) == l.IncEnabled {
			st.dst += size
		}
		st.remaining--
	}

	if st.remaining == 0 {
		st.active = false
		c.done |= bit
		c.regs[l.ControlReg(ch)] = l.OpMode.Set(ctl, l.OpModeIdle)
		pkg.LogDebug(component, "channel done", "channel", ch)
		c.raiseLocked(bit)
	}
}

// idleLocked counts a stalled request toward the channel's timeout.
func (c *Controller) idleLocked(ch int) {
	l := c.layout
	bit := uint32(1) << uint(ch)
	if c.regs[l.TimeoutEnable]&bit == 0 {
		return
	}
	reg, f, ok := l.TimeoutCounterAt(ch)
	if !ok {
		return
	}
	limit := f.Get(c.regs[reg])
	if limit == 0 {
		return
	}
	st := &c.channels[ch]
	st.idle++
	if st.idle >= limit {
		st.idle = 0
		c.timeouts |= l.TimeoutBit(ch)
		pkg.LogDebug(component, "channel timeout", "channel", ch)
		c.raiseTimeoutLocked(bit)
	}
}

func (c *Controller) busErrorLocked(ch int) {
	bit := uint32(1) << uint(ch)
	c.channels[ch].active = false
	c.abort |= bit
	pkg.LogDebug(component, "bus error", "channel", ch)
	c.raiseLocked(bit)
}

// Run steps the controller until ctx is cancelled. It sleeps while no
// channel is active and wakes on Trigger.
func (c *Controller) Run(ctx context.Context) error {
	var ticker *time.Ticker
	if c.cfg.Tick > 0 {
		ticker = time.NewTicker(c.cfg.Tick)
		defer ticker.Stop()
	}
	for {
		if !c.Step() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.wake:
			}
			continue
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			runtime.Gosched()
		}
	}
}
