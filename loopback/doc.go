// Package loopback verifies a DMA engine end to end through a peripheral
// whose transmit output is wired to its receive input.
//
// [Tester.Run] fills a source buffer with the pattern byte i = i mod 256 and a
// destination buffer with [Sentinel], opens a session with one transmit and
// one receive channel, starts it, and waits for the terminal outcome. A Done
// outcome is followed by a byte-for-byte comparison that stops at the first
// mismatch. Abort, timeout, and unrecognized outcomes are reported as their
// own verdicts without looking at the destination.
//
//	engine := dma.NewEngine(ctrl)
//	r, err := loopback.New(engine, mem, loopback.DefaultConfig()).
//	    WithOutput(os.Stdout).
//	    Run(ctx, 128)
package loopback
