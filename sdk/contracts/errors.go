package contracts

import "errors"

// Error definitions for session lifecycle and transmission issues.
// Callers should match them with errors.Is; implementations wrap them
// with platform detail using fmt.Errorf("%w: ...").
var (
	// ErrDeviceUnavailable indicates the device subsystem refused to create a client.
	ErrDeviceUnavailable = errors.New("MIDI device subsystem unavailable")
	// ErrPortCreationFailed indicates an input or output port could not be created.
	ErrPortCreationFailed = errors.New("error creating MIDI port")
	// ErrInvalidRange indicates a message parameter outside its MIDI data range.
	ErrInvalidRange = errors.New("MIDI parameter out of range")
	// ErrNotStarted indicates an operation that requires an active session.
	ErrNotStarted = errors.New("MIDI session not started")
	// ErrSendFailed indicates the subsystem rejected an outgoing message.
	ErrSendFailed = errors.New("error sending MIDI message")
)
