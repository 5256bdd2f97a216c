package loopback

import (
	"fmt"

	"github.com/ardnew/softdma/dma"
	"github.com/ardnew/softdma/pkg"
)

// Kind is the verdict of a loopback test.
type Kind uint8

// Verdicts. Every kind except Pass is a failure.
const (
	Pass         Kind = iota
	Fail              // Transfer completed but data differs
	Aborted           // Hardware aborted the transfer
	TimedOut          // Hardware timeout expired
	Unrecognized      // Status the engine could not classify
)

// String returns a human-readable verdict.
func (k Kind) String() string {
	switch k {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Aborted:
		return "aborted"
	case TimedOut:
		return "timed out"
	case Unrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Result is the outcome of one loopback test.
type Result struct {
	Kind    Kind
	Outcome dma.Outcome
	Index   int  // Fail: first mismatching byte; otherwise -1
	Got     byte // Fail: value received at Index
}

// Passed reports whether the test passed.
func (r Result) Passed() bool {
	return r.Kind == Pass
}

// String returns a human-readable summary.
func (r Result) String() string {
	if r.Kind == Fail {
		return fmt.Sprintf("fail at byte %d", r.Index)
	}
	if r.Kind == Pass {
		return r.Kind.String()
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Outcome)
}

// Err returns nil for a pass and a wrapped sentinel error for each failure
// kind.
func (r Result) Err() error {
	switch r.Kind {
	case Pass:
		return nil
	case Fail:
		return fmt.Errorf("byte %d: got %#02x, want %#02x: %w", r.Index, r.Got, byte(r.Index), pkg.ErrMismatch)
	default:
		return r.Outcome.Err()
	}
}
