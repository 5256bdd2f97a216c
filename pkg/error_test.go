package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsDistinct(t *testing.T) {
	all := []error{
		ErrChannelBusy, ErrInvalidChannel, ErrInvalidWidth, ErrZeroLength,
		ErrInvalidAddress, ErrInvalidParameter, ErrInvalidState, ErrNotConfigured,
		ErrSessionDiscarded, ErrSessionPending, ErrNoMemory,
		ErrAborted, ErrTimeout, ErrUnrecognized, ErrMismatch,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}

func TestErrorsWrap(t *testing.T) {
	err := fmt.Errorf("open channel %d: %w", 1, ErrChannelBusy)
	if !errors.Is(err, ErrChannelBusy) {
		t.Errorf("wrapped error %v does not match ErrChannelBusy", err)
	}
}
