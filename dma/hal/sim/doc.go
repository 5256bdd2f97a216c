// Package sim implements a simulated DMA controller for testing.
//
// The simulator implements [hal.Controller] and [hal.Memory] over an
// in-memory register file laid out by a [hal.Layout]. It decodes the same
// control words the engine programs, so a mistake in either side's use of the
// layout shows up as a failed transfer rather than passing silently.
//
// # Execution Model
//
// Triggered channels advance one request per [Controller.Step]. [Controller.Run]
// steps on its own goroutine, which plays the part of the bus master running
// concurrently with the program. Interrupt handlers are invoked from whichever
// goroutine raised the event, serialized so the handler is never re-entered.
//
// # Peripherals
//
// Peripheral data registers are [Device] values attached at bus addresses.
// [UART] provides a transmit and receive register pair wired in loopback,
// with hooks to break the wire or corrupt bytes in flight.
//
// # Fault Injection
//
// [Controller.Inject] sets arbitrary status bits and fires the interrupt line.
// [Controller.OnTrigger] runs a hook right after channels start, which is the
// natural point to inject a fault into a running session.
//
// # Usage
//
//	ctrl := sim.New(sim.Config{})
//	uart := sim.NewUART()
//	ctrl.AttachUART(uart, txAddr, rxAddr)
//	go ctrl.Run(ctx)
package sim
