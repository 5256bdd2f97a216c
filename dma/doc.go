// Package dma implements a DMA transfer-completion engine.
//
// The engine programs controller channels from static [ChannelConfig]
// descriptors, starts them, and turns the controller's shared status
// registers into exactly one [Outcome] per [Session].
//
// # Sessions
//
// An [Engine] reserves channels for a session with [Engine.Open]. The session
// moves through a fixed lifecycle:
//
//	Idle -> Running -> {Completed, Aborted, TimedOut, Faulted}
//
// Configure and SetAddresses record each channel's descriptor, Arm writes the
// descriptors to hardware, and Start triggers the channels. From then on the
// controller runs on its own until the demultiplexer reports an outcome.
// Close releases the reservation so the channels can be opened again.
//
// # Completion
//
// Status is decoded by a pure [Decoder] with a fixed precedence: abort, then
// done, then timeout, and anything else is [OutcomeUnrecognized]. A [Demux]
// wraps the decoder with the read-decode-clear sequence on the status
// registers. The same Demux runs from the controller's interrupt handler in
// [ModeInterrupt] and from [Session.Wait] in [ModePoll], so the result never
// depends on which mode is in use.
//
// The outcome is held in a write-once [Cell]: the first terminal value wins
// and later ones are discarded.
//
// # Errors
//
// Configuration errors are returned by the call that caused them and discard
// the session. Transfer failures are never returned as errors by the engine;
// they surface as the terminal outcome, and [Outcome.Err] converts them. The
// engine never retries.
package dma
