// Package message encodes and decodes MIDI channel-voice messages.
// Encoding is pure and deterministic: the same inputs always produce the
// same bytes, and invalid inputs fail before anything is transmitted.
package message

import (
	"errors"
	"fmt"

	"github.com/phntmzn/midx/sdk/contracts"
)

// Error definitions for inbound message decoding issues.
var (
	ErrUnsupportedMessage = errors.New("unsupported MIDI message")
	ErrTruncatedMessage   = errors.New("truncated MIDI message")
)

const (
	// maxDataByte is the largest value a MIDI data byte can carry.
	maxDataByte = 0x7F
	// maxChannel is the highest 1-based MIDI channel.
	maxChannel = 16
)

// Event is one decoded channel-voice message.
type Event struct {
	Command contracts.Command // Command nibble of the status byte.
	Channel uint8             // Channel is 1-based (1-16).
	Data1   uint8             // Note, controller, or program number.
	Data2   uint8             // Velocity or controller value; 0 when the message has none.
}

// EncodeNoteOn encodes a Note On message.
//
// note and velocity must be 0-127 and channel must be 1-16; out-of-range
// parameters return an error wrapping contracts.ErrInvalidRange. The
// resulting message is [0x90|channel-1, note, velocity].
func EncodeNoteOn(note, velocity, channel uint8) ([]byte, error) {
	status, err := statusByte(contracts.NoteOn, channel)
	if err != nil {
		return nil, err
	}
	if err := checkDataByte("note", note); err != nil {
		return nil, err
	}
	if err := checkDataByte("velocity", velocity); err != nil {
		return nil, err
	}
	return []byte{status, note, velocity}, nil
}

// EncodeNoteOff encodes a Note Off message with release velocity 0.
// The resulting message is [0x80|channel-1, note, 0].
func EncodeNoteOff(note, channel uint8) ([]byte, error) {
	status, err := statusByte(contracts.NoteOff, channel)
	if err != nil {
		return nil, err
	}
	if err := checkDataByte("note", note); err != nil {
		return nil, err
	}
	return []byte{status, note, 0}, nil
}

// EncodeControlChange encodes a Control Change message.
// The resulting message is [0xB0|channel-1, controller, value].
func EncodeControlChange(controller, value, channel uint8) ([]byte, error) {
	status, err := statusByte(contracts.ControlChange, channel)
	if err != nil {
		return nil, err
	}
	if err := checkDataByte("controller", controller); err != nil {
		return nil, err
	}
	if err := checkDataByte("value", value); err != nil {
		return nil, err
	}
	return []byte{status, controller, value}, nil
}

// EncodeProgramChange encodes a two-byte Program Change message.
// The resulting message is [0xC0|channel-1, program].
func EncodeProgramChange(program, channel uint8) ([]byte, error) {
	status, err := statusByte(contracts.ProgramChange, channel)
	if err != nil {
		return nil, err
	}
	if err := checkDataByte("program", program); err != nil {
		return nil, err
	}
	return []byte{status, program}, nil
}

// Parse decodes the first channel-voice message in data. Trailing bytes
// beyond the message are ignored; data bytes have their high bit masked
// off. A Note On with velocity 0 is reported as a Note Off.
//
// System and realtime messages (status >= 0xF0) and commands outside the
// supported set return ErrUnsupportedMessage; buffers too short for their
// command return ErrTruncatedMessage.
func Parse(data []byte) (Event, error) {
	if len(data) == 0 {
		return Event{}, fmt.Errorf("%w: empty buffer", ErrTruncatedMessage)
	}

	status := data[0]
	if status < 0x80 || status >= 0xF0 {
		return Event{}, fmt.Errorf("%w: status 0x%02X", ErrUnsupportedMessage, status)
	}

	ev := Event{
		Command: contracts.Command(status & 0xF0),
		Channel: status&0x0F + 1,
	}

	switch ev.Command {
	case contracts.NoteOff, contracts.NoteOn, contracts.ControlChange:
		if len(data) < 3 {
			return Event{}, fmt.Errorf("%w: %d byte(s) for status 0x%02X", ErrTruncatedMessage, len(data), status)
		}
		ev.Data1 = data[1] & maxDataByte
		ev.Data2 = data[2] & maxDataByte
		if ev.Command == contracts.NoteOn && ev.Data2 == 0 {
			ev.Command = contracts.NoteOff
		}
	case contracts.ProgramChange:
		if len(data) < 2 {
			return Event{}, fmt.Errorf("%w: %d byte(s) for status 0x%02X", ErrTruncatedMessage, len(data), status)
		}
		ev.Data1 = data[1] & maxDataByte
	default:
		return Event{}, fmt.Errorf("%w: command 0x%02X", ErrUnsupportedMessage, byte(ev.Command))
	}

	return ev, nil
}

// statusByte combines a command nibble with a 1-based channel.
func statusByte(cmd contracts.Command, channel uint8) (byte, error) {
	if channel < 1 || channel > maxChannel {
		return 0, fmt.Errorf("%w: channel %d", contracts.ErrInvalidRange, channel)
	}
	return byte(cmd) | (channel - 1), nil
}

// checkDataByte verifies a data byte fits in seven bits.
func checkDataByte(name string, v uint8) error {
	if v > maxDataByte {
		return fmt.Errorf("%w: %s %d", contracts.ErrInvalidRange, name, v)
	}
	return nil
}
