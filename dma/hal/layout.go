package hal

// Field describes a bit field within a 32-bit register.
type Field struct {
	Shift uint8
	Bits  uint8
}

// Mask returns the in-place mask of the field.
func (f Field) Mask() uint32 {
	if f.Bits >= 32 {
		return ^uint32(0)
	}
	return (1<<f.Bits - 1) << f.Shift
}

// Max returns the largest value the field can hold.
func (f Field) Max() uint32 {
	return f.Mask() >> f.Shift
}

// Get extracts the field from word.
func (f Field) Get(word uint32) uint32 {
	return (word & f.Mask()) >> f.Shift
}

// Set returns word with the field replaced by v. Excess bits of v are dropped.
func (f Field) Set(word, v uint32) uint32 {
	return word&^f.Mask() | (v<<f.Shift)&f.Mask()
}

// Layout is the register map of a DMA controller.
//
// Per-channel registers are addressed as base + channel*stride. Status
// registers hold one bit per channel, bit n for channel n, except
// InterruptStatus whose per-channel timeout bits are listed in IntTimeout.
type Layout struct {
	Name     string
	Channels int

	// Channel descriptor registers (channel 0 offsets).
	DescriptorStride uint32
	Control          Reg
	Source           Reg
	Destination      Reg

	// Shared control and status registers.
	ChannelEnable          Reg
	Stop                   Reg
	InterruptEnable        Reg
	InterruptStatus        Reg
	AbortStatus            Reg
	DoneStatus             Reg
	TimeoutEnable          Reg
	TimeoutInterruptEnable Reg

	// Timeout counters are packed TimeoutPerReg to a register.
	TimeoutCounter Reg
	TimeoutField   Field
	TimeoutPerReg  int

	// Request source selectors are packed RequestPerReg to a register.
	RequestSelect Reg
	RequestField  Field
	RequestPerReg int

	// Control word fields.
	OpMode    Field
	TxType    Field
	BurstSize Field
	SrcInc    Field
	DstInc    Field
	Width     Field
	Count     Field

	OpModeIdle   uint32
	OpModeBasic  uint32
	TxTypeBurst  uint32
	TxTypeSingle uint32
	IncEnabled   uint32
	IncFixed     uint32

	// WidthCodes[i] is the Width field value for 8<<i bits.
	WidthCodes [3]uint32

	// BurstSizes[code] is the number of elements per burst for a BurstSize
	// field value.
	BurstSizes []uint32

	// CountBias is subtracted from the element count before it is stored.
	CountBias uint32

	// InterruptStatus summary bits.
	IntAbort   uint32
	IntDone    uint32
	IntTimeout []uint32 // indexed by channel; zero means no timeout detection
}

// ChannelMask returns the mask covering every channel of the controller.
func (l *Layout) ChannelMask() uint32 {
	if l.Channels >= 32 {
		return ^uint32(0)
	}
	return 1<<uint(l.Channels) - 1
}

// ValidChannel reports whether ch exists on the controller.
func (l *Layout) ValidChannel(ch int) bool {
	return ch >= 0 && ch < l.Channels
}

func (l *Layout) descriptor(base Reg, ch int) Reg {
	return base + Reg(uint32(ch)*l.DescriptorStride)
}

// ControlReg returns the control register of channel ch.
func (l *Layout) ControlReg(ch int) Reg { return l.descriptor(l.Control, ch) }

// SourceReg returns the source address register of channel ch.
func (l *Layout) SourceReg(ch int) Reg { return l.descriptor(l.Source, ch) }

// DestinationReg returns the destination address register of channel ch.
func (l *Layout) DestinationReg(ch int) Reg { return l.descriptor(l.Destination, ch) }

// RequestSelectAt returns the register and field holding the request source
// of channel ch.
func (l *Layout) RequestSelectAt(ch int) (Reg, Field) {
	reg := l.RequestSelect + Reg(4*(ch/l.RequestPerReg))
	f := l.RequestField
	f.Shift += uint8(ch%l.RequestPerReg) * 8
	return reg, f
}

// TimeoutCounterAt returns the register and field holding the timeout
// counter of channel ch. ok is false if the channel has no timeout detection.
func (l *Layout) TimeoutCounterAt(ch int) (reg Reg, f Field, ok bool) {
	if l.TimeoutBit(ch) == 0 || l.TimeoutPerReg == 0 {
		return 0, Field{}, false
	}
	reg = l.TimeoutCounter + Reg(4*(ch/l.TimeoutPerReg))
	f = l.TimeoutField
	f.Shift += uint8(ch%l.TimeoutPerReg) * f.Bits
	return reg, f, true
}

// TimeoutBit returns the InterruptStatus timeout bit of channel ch, or zero.
func (l *Layout) TimeoutBit(ch int) uint32 {
	if ch < 0 || ch >= len(l.IntTimeout) {
		return 0
	}
	return l.IntTimeout[ch]
}

// TimeoutBits returns the InterruptStatus timeout bits of every channel in mask.
func (l *Layout) TimeoutBits(channels uint32) uint32 {
	var bits uint32
	for ch, bit := range l.IntTimeout {
		if channels&(1<<uint(ch)) != 0 {
			bits |= bit
		}
	}
	return bits
}

// TimeoutChannels maps InterruptStatus timeout bits back to a channel mask.
func (l *Layout) TimeoutChannels(intStatus uint32) uint32 {
	var mask uint32
	for ch, bit := range l.IntTimeout {
		if bit != 0 && intStatus&bit == bit {
			mask |= 1 << uint(ch)
		}
	}
	return mask
}

// WidthCode returns the Width field value for a data width in bits.
func (l *Layout) WidthCode(bits int) (uint32, bool) {
	switch bits {
	case 8:
		return l.WidthCodes[0], true
	case 16:
		return l.WidthCodes[1], true
	case 32:
		return l.WidthCodes[2], true
	}
	return 0, false
}

// WidthBits returns the data width in bits for a Width field value.
func (l *Layout) WidthBits(code uint32) (int, bool) {
	for i, c := range l.WidthCodes {
		if c == code {
			return 8 << uint(i), true
		}
	}
	return 0, false
}

// BurstCode returns the BurstSize field value for n elements per burst.
func (l *Layout) BurstCode(n uint32) (uint32, bool) {
	for code, size := range l.BurstSizes {
		if size == n {
			return uint32(code), true
		}
	}
	return 0, false
}

// BurstLength returns the elements per burst for a BurstSize field value.
func (l *Layout) BurstLength(code uint32) uint32 {
	if int(code) >= len(l.BurstSizes) {
		return 1
	}
	return l.BurstSizes[code]
}

// MaxCount returns the largest element count the Count field can encode.
func (l *Layout) MaxCount() uint32 {
	return l.Count.Max() + l.CountBias
}
