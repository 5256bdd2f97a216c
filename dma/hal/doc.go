// Package hal defines the Hardware Abstraction Layer between the DMA engine
// and a DMA controller.
//
// The engine programs channels and services completion only through the
// [Controller] interface: register reads, register writes, a trigger, and a
// single interrupt handler. Buffers are made reachable by the controller
// through [Memory].
//
// # Table-Driven Layouts
//
// No register offset or bit position appears in engine code. A [Layout]
// describes the descriptor registers, the shared status registers, the
// control-word fields, and the encodings of width, burst size, and
// element count. [M480] returns the layout of the Nuvoton M480 PDMA; other
// controllers supply their own table.
//
// # Status Registers
//
// Completion is reported through three registers, captured together as a
// [Status] snapshot:
//
//   - InterruptStatus: summary abort and done flags plus per-channel
//     timeout flags
//   - AbortStatus: one abort flag per channel
//   - DoneStatus: one transfer-done flag per channel
//
// All three are write-one-to-clear.
//
// A simulated controller for testing is available in
// [github.com/ardnew/softdma/dma/hal/sim].
package hal
