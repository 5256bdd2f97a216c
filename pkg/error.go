package pkg

import "errors"

// Configuration and reservation errors.
var (
	// ErrChannelBusy indicates a requested channel is reserved by another live session.
	ErrChannelBusy = errors.New("channel busy")

	// ErrInvalidChannel indicates a channel id outside the controller or not owned by the session.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidWidth indicates an unsupported data width or an element size mismatch.
	ErrInvalidWidth = errors.New("invalid data width")

	// ErrZeroLength indicates a transfer count of zero.
	ErrZeroLength = errors.New("zero transfer length")

	// ErrInvalidAddress indicates a misaligned or unmapped address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidState indicates the session is in the wrong state for the operation.
	ErrInvalidState = errors.New("invalid session state")

	// ErrNotConfigured indicates an owned channel has no configuration or addresses.
	ErrNotConfigured = errors.New("channel not configured")

	// ErrSessionDiscarded indicates a configuration error already invalidated the session.
	ErrSessionDiscarded = errors.New("session discarded")

	// ErrSessionPending indicates a running session has not produced its outcome yet.
	ErrSessionPending = errors.New("session outcome pending")

	// ErrNoMemory indicates the bus has no room to map another buffer.
	ErrNoMemory = errors.New("insufficient memory")
)

// Transfer outcome errors.
var (
	// ErrAborted indicates the hardware reported a transfer abort.
	ErrAborted = errors.New("transfer aborted")

	// ErrTimeout indicates the hardware timeout counter expired.
	ErrTimeout = errors.New("transfer timeout")

	// ErrUnrecognized indicates a status the engine does not know how to classify.
	ErrUnrecognized = errors.New("unrecognized status")

	// ErrMismatch indicates received data differs from what was sent.
	ErrMismatch = errors.New("verification mismatch")
)
