package loopback

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ardnew/softdma/dma"
	"github.com/ardnew/softdma/dma/hal"
	"github.com/ardnew/softdma/pkg"
)

const component = pkg.ComponentLoopback

// Sentinel is the destination fill byte. A byte still holding it after the
// run was never written by the receive channel.
const Sentinel byte = 0xFF

// abortGrace bounds the wait for the abort outcome after the caller's
// context ends.
const abortGrace = 100 * time.Millisecond

// Config describes the channel pair and peripheral of a loopback test.
type Config struct {
	TX, RX dma.ChannelID

	TXRequest, RXRequest hal.Request

	// TXData and RXData are the bus addresses of the peripheral's transmit
	// and receive data registers.
	TXData, RXData uint32

	Mode dma.Mode

	// Timeout is the receive channel's hardware timeout counter. Zero
	// leaves timeout detection off.
	Timeout uint32
}

// DefaultConfig returns the channel assignment of the M480 USCI0 sample:
// channel 0 transmits, channel 1 receives.
func DefaultConfig() Config {
	return Config{
		TX:        0,
		RX:        1,
		TXRequest: hal.M480RequestUSCI0TX,
		RXRequest: hal.M480RequestUSCI0RX,
		TXData:    hal.M480USCI0Base + hal.M480USCITXData,
		RXData:    hal.M480USCI0Base + hal.M480USCIRXData,
		Mode:      dma.ModeInterrupt,
	}
}

// Tester runs loopback transfers through a DMA engine.
type Tester struct {
	engine *dma.Engine
	mem    hal.Memory
	cfg    Config
	out    io.Writer
}

// New creates a tester. mem must map buffers for the controller behind e.
func New(e *dma.Engine, mem hal.Memory, cfg Config) *Tester {
	return &Tester{
		engine: e,
		mem:    mem,
		cfg:    cfg,
		out:    io.Discard,
	}
}

// WithOutput sets the console that receives outcome and pass/fail messages.
func (t *Tester) WithOutput(w io.Writer) *Tester {
	if w == nil {
		w = io.Discard
	}
	t.out = w
	return t
}

// Banner writes the program banner and wiring instructions to the console.
func (t *Tester) Banner() {
	fmt.Fprintln(t.out, "+-----------------------------------------------------------+")
	fmt.Fprintln(t.out, "|  UART PDMA Loopback Test                                  |")
	fmt.Fprintln(t.out, "+-----------------------------------------------------------+")
	fmt.Fprintln(t.out, "|  Transmits a byte pattern on one DMA channel and receives |")
	fmt.Fprintln(t.out, "|  it on another. Connect the UART TX and RX pins.          |")
	fmt.Fprintln(t.out, "+-----------------------------------------------------------+")
}

// Pattern returns n bytes where byte i is i mod 256.
func Pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// Verify compares dst against the loopback pattern and returns the index of
// the first mismatching byte. It stops at the first error.
func Verify(dst []byte) (int, bool) {
	for i, b := range dst {
		if b != byte(i) {
			return i, false
		}
	}
	return -1, true
}

// Run transmits length bytes of the loopback pattern, receives them into a
// buffer filled with Sentinel, waits for the session outcome, and verifies
// the received data.
//
// Transfer failures are reported in the Result. The error is non-nil only
// when the test could not be carried out: a configuration error, or ctx
// ending before the hardware reported an outcome.
func (t *Tester) Run(ctx context.Context, length int) (Result, error) {
	if length <= 0 {
		return Result{}, fmt.Errorf("loopback length %d: %w", length, pkg.ErrZeroLength)
	}

	src := Pattern(length)
	dst := make([]byte, length)
	for i := range dst {
		dst[i] = Sentinel
	}

	srcAddr, err := t.mem.Map(src)
	if err != nil {
		return Result{}, fmt.Errorf("map source: %w", err)
	}
	defer t.mem.Unmap(srcAddr)
	dstAddr, err := t.mem.Map(dst)
	if err != nil {
		return Result{}, fmt.Errorf("map destination: %w", err)
	}
	defer t.mem.Unmap(dstAddr)

	s, err := t.open(uint32(length), srcAddr, dstAddr)
	if err != nil {
		return Result{}, err
	}

	pkg.LogInfo(component, "loopback started",
		"length", length, "mode", t.cfg.Mode.String(), "tx", t.cfg.TX, "rx", t.cfg.RX)
	if err := s.Start(); err != nil {
		s.Close()
		return Result{}, err
	}

	o, err := s.Wait(ctx)
	if err != nil {
		t.cancel(s)
		return Result{}, fmt.Errorf("wait for outcome: %w", err)
	}
	if err := s.Close(); err != nil {
		return Result{}, err
	}

	r := t.evaluate(o, dst)
	t.report(r)
	return r, nil
}

func (t *Tester) open(count, srcAddr, dstAddr uint32) (*dma.Session, error) {
	c := t.cfg
	s, err := t.engine.Open(c.TX, c.RX)
	if err != nil {
		return nil, err
	}
	if err := t.configure(s, count, srcAddr, dstAddr); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (t *Tester) configure(s *dma.Session, count, srcAddr, dstAddr uint32) error {
	c := t.cfg
	if err := s.SetMode(c.Mode); err != nil {
		return err
	}
	tx := dma.ChannelConfig{
		Channel:   c.TX,
		Request:   c.TXRequest,
		Direction: dma.MemToPeriph,
		SrcMode:   dma.AddressIncrement,
		DstMode:   dma.AddressFixed,
		Width:     dma.Width8,
		Count:     count,
		Burst:     dma.Single(),
	}
	rx := dma.ChannelConfig{
		Channel:   c.RX,
		Request:   c.RXRequest,
		Direction: dma.PeriphToMem,
		SrcMode:   dma.AddressFixed,
		DstMode:   dma.AddressIncrement,
		Width:     dma.Width8,
		Count:     count,
		Burst:     dma.Single(),
		Timeout:   c.Timeout,
	}
	if err := s.Configure(tx); err != nil {
		return err
	}
	if err := s.Configure(rx); err != nil {
		return err
	}
	if err := s.SetAddresses(c.TX, srcAddr, c.TXData); err != nil {
		return err
	}
	if err := s.SetAddresses(c.RX, c.RXData, dstAddr); err != nil {
		return err
	}
	return s.Arm()
}

// cancel aborts a session whose wait was cut short and releases it once the
// abort is reported.
func (t *Tester) cancel(s *dma.Session) {
	if err := s.Abort(); err != nil {
		pkg.LogWarn(component, "abort failed", "error", err)
		return
	}
	ctx, done := context.WithTimeout(context.Background(), abortGrace)
	defer done()
	if _, err := s.Wait(ctx); err != nil {
		pkg.LogError(component, "session did not stop", "error", err)
		return
	}
	s.Close()
}

func (t *Tester) evaluate(o dma.Outcome, dst []byte) Result {
	r := Result{Outcome: o, Index: -1}
	switch o.Kind {
	case dma.OutcomeDone:
		if i, ok := Verify(dst); !ok {
			r.Kind = Fail
			r.Index = i
			r.Got = dst[i]
		} else {
			r.Kind = Pass
		}
	case dma.OutcomeAbort:
		r.Kind = Aborted
	case dma.OutcomeTimeout:
		r.Kind = TimedOut
	default:
		r.Kind = Unrecognized
	}
	return r
}

func (t *Tester) report(r Result) {
	switch r.Outcome.Kind {
	case dma.OutcomeDone:
		fmt.Fprintln(t.out, "test done...")
	case dma.OutcomeAbort:
		fmt.Fprintln(t.out, "target abort...")
	case dma.OutcomeTimeout:
		fmt.Fprintln(t.out, "timeout...")
	default:
		fmt.Fprintf(t.out, "unknown interrupt %#x...\n", r.Outcome.Raw)
	}

	switch r.Kind {
	case Pass:
		fmt.Fprintln(t.out, "UART PDMA test Pass.")
		pkg.LogInfo(component, "loopback passed")
	case Fail:
		fmt.Fprintf(t.out, "Receive Data Compare Error at byte %d: got %#02x, want %#02x\n",
			r.Index, r.Got, byte(r.Index))
		pkg.LogError(component, "loopback failed", "index", r.Index)
	default:
		pkg.LogError(component, "loopback failed", "outcome", r.Outcome.String())
	}
}
