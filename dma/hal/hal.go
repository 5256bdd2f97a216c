package hal

// Reg is the offset of a controller register.
type Reg uint32

// Request selects the peripheral that paces a channel.
type Request uint8

// RequestMemory selects software-triggered memory transfers on every layout.
const RequestMemory Request = 0

// Status is a snapshot of the controller's shared status registers, taken
// in a single service pass.
type Status struct {
	Int   uint32 // Interrupt status summary (abort, done, timeout flags)
	Abort uint32 // Per-channel abort flags
	Done  uint32 // Per-channel transfer-done flags
}

// IsZero reports whether no status bit is set.
func (s Status) IsZero() bool {
	return s.Int == 0 && s.Abort == 0 && s.Done == 0
}

// Controller defines the register-level interface of a DMA controller.
//
// The engine never assumes bit positions; everything hardware specific is
// described by the [Layout] returned from Layout.
//
// Read and Write must be safe to call from the interrupt handler.
type Controller interface {
	// Layout returns the register map and bit fields of the controller.
	Layout() *Layout

	// Read returns the current value of a register.
	Read(reg Reg) uint32

	// Write stores a value to a register. Status registers use
	// write-one-to-clear semantics.
	Write(reg Reg, value uint32)

	// Trigger starts the channels in the mask. Memory channels receive a
	// software request; peripheral channels have their request line enabled.
	Trigger(channels uint32)

	// SetInterruptHandler installs the handler invoked when any enabled
	// interrupt source fires. A nil handler detaches it.
	SetInterruptHandler(handler func())
}

// Memory binds host buffers to bus addresses a channel can reach.
type Memory interface {
	// Map makes buf reachable at the returned bus address until Unmap.
	Map(buf []byte) (uint32, error)

	// Unmap releases a region previously returned by Map.
	Unmap(addr uint32)
}
