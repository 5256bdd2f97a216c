package dma

import (
	"fmt"

	"github.com/ardnew/softdma/dma/hal"
	"github.com/ardnew/softdma/pkg"
)

// ChannelID identifies a hardware channel.
type ChannelID uint8

func (id ChannelID) bit() uint32 {
	return 1 << uint(id)
}

// Direction is the data flow of a channel.
type Direction uint8

// Channel directions.
const (
	MemToPeriph Direction = iota // Memory to peripheral data register
	PeriphToMem                  // Peripheral data register to memory
	MemToMem                     // Memory to memory
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case MemToPeriph:
		return "mem-to-periph"
	case PeriphToMem:
		return "periph-to-mem"
	case MemToMem:
		return "mem-to-mem"
	default:
		return "unknown"
	}
}

// AddressMode controls how an address changes between elements.
type AddressMode uint8

// Address modes.
const (
	AddressIncrement AddressMode = iota // Advance by the data width per element
	AddressFixed                        // Stay on one location, e.g. a data register
)

// Width is the element size in bits.
type Width uint8

// Supported data widths.
const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// Bytes returns the element size in bytes.
func (w Width) Bytes() uint32 {
	return uint32(w) / 8
}

// Burst selects the request type of a channel. The zero value is a single
// request per element.
type Burst struct {
	Size uint32 // elements per request; zero selects single requests
}

// Single returns a single-request burst mode.
func Single() Burst { return Burst{} }

// BurstOf returns a burst mode moving n elements per request.
func BurstOf(n uint32) Burst { return Burst{Size: n} }

// IsSingle reports whether each request moves one element.
func (b Burst) IsSingle() bool { return b.Size == 0 }

// ChannelConfig is the static configuration of one channel.
type ChannelConfig struct {
	Channel   ChannelID
	Request   hal.Request
	Direction Direction
	SrcMode   AddressMode
	DstMode   AddressMode
	Width     Width

	// SrcElement and DstElement are the element sizes of each side. Zero
	// means the side uses Width.
	SrcElement Width
	DstElement Width

	Count uint32 // elements to transfer
	Burst Burst

	// Timeout is the hardware timeout counter reload. Zero disables timeout
	// detection for the channel.
	Timeout uint32
}

// validate checks cfg against the controller layout.
func (cfg *ChannelConfig) validate(l *hal.Layout) error {
	if !l.ValidChannel(int(cfg.Channel)) {
		return fmt.Errorf("channel %d: %w", cfg.Channel, pkg.ErrInvalidChannel)
	}
	if cfg.Count == 0 {
		return fmt.Errorf("channel %d: %w", cfg.Channel, pkg.ErrZeroLength)
	}
	if _, ok := l.WidthCode(int(cfg.Width)); !ok {
		return fmt.Errorf("channel %d: width %d: %w", cfg.Channel, cfg.Width, pkg.ErrInvalidWidth)
	}
	if cfg.SrcElement != 0 && cfg.SrcElement != cfg.Width {
		return fmt.Errorf("channel %d: source element %d != width %d: %w",
			cfg.Channel, cfg.SrcElement, cfg.Width, pkg.ErrInvalidWidth)
	}
	if cfg.DstElement != 0 && cfg.DstElement != cfg.Width {
		return fmt.Errorf("channel %d: destination element %d != width %d: %w",
			cfg.Channel, cfg.DstElement, cfg.Width, pkg.ErrInvalidWidth)
	}
	if cfg.Direction > MemToMem {
		return fmt.Errorf("channel %d: direction %d: %w", cfg.Channel, cfg.Direction, pkg.ErrInvalidParameter)
	}
	if cfg.SrcMode > AddressFixed || cfg.DstMode > AddressFixed {
		return fmt.Errorf("channel %d: address mode: %w", cfg.Channel, pkg.ErrInvalidParameter)
	}
	if (cfg.Direction == MemToPeriph && cfg.DstMode != AddressFixed) ||
		(cfg.Direction == PeriphToMem && cfg.SrcMode != AddressFixed) {
		return fmt.Errorf("channel %d: %v needs a fixed peripheral address: %w",
			cfg.Channel, cfg.Direction, pkg.ErrInvalidParameter)
	}
	if cfg.Count > l.MaxCount() {
		return fmt.Errorf("channel %d: count %d exceeds %d: %w",
			cfg.Channel, cfg.Count, l.MaxCount(), pkg.ErrInvalidParameter)
	}
	if !cfg.Burst.IsSingle() {
		if _, ok := l.BurstCode(cfg.Burst.Size); !ok {
			return fmt.Errorf("channel %d: burst size %d: %w", cfg.Channel, cfg.Burst.Size, pkg.ErrInvalidParameter)
		}
	}
	if l.RequestPerReg > 0 {
		_, f := l.RequestSelectAt(int(cfg.Channel))
		if uint32(cfg.Request) > f.Max() {
			return fmt.Errorf("channel %d: request %d: %w", cfg.Channel, cfg.Request, pkg.ErrInvalidParameter)
		}
	}
	if cfg.Timeout != 0 {
		_, f, ok := l.TimeoutCounterAt(int(cfg.Channel))
		if !ok || cfg.Timeout > f.Max() {
			return fmt.Errorf("channel %d: timeout %d: %w", cfg.Channel, cfg.Timeout, pkg.ErrInvalidParameter)
		}
	}
	return nil
}

// control encodes the channel control word. cfg must be valid.
func (cfg *ChannelConfig) control(l *hal.Layout) uint32 {
	var ctl uint32
	ctl = l.OpMode.Set(ctl, l.OpModeBasic)
	if cfg.Burst.IsSingle() {
		ctl = l.TxType.Set(ctl, l.TxTypeSingle)
	} else {
		code, _ := l.BurstCode(cfg.Burst.Size)
		ctl = l.TxType.Set(ctl, l.TxTypeBurst)
		ctl = l.BurstSize.Set(ctl, code)
	}
	ctl = l.SrcInc.Set(ctl, incCode(l, cfg.SrcMode))
	ctl = l.DstInc.Set(ctl, incCode(l, cfg.DstMode))
	width, _ := l.WidthCode(int(cfg.Width))
	ctl = l.Width.Set(ctl, width)
	ctl = l.Count.Set(ctl, cfg.Count-l.CountBias)
	return ctl
}

func incCode(l *hal.Layout, m AddressMode) uint32 {
	if m == AddressFixed {
		return l.IncFixed
	}
	return l.IncEnabled
}
