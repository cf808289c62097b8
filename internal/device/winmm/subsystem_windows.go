//go:build windows
// +build windows

// Package winmm adapts the Windows multimedia MIDI services (winmm.dll)
// to the device subsystem boundary. An input port opens every input
// device present and merges their streams; an output port opens every
// output device so a destination selector can index them.
package winmm

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/phntmzn/midx/sdk/contracts"
	"go.uber.org/multierr"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI device handles.
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags.
const (
	CALLBACK_NULL     = 0x00000000 // No callback mechanism.
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function.
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status.
)

// Constants for MIDI input message types.
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened.
	MIM_CLOSE     = 0x3C2 // MIDI device closed.
	MIM_DATA      = 0x3C3 // MIDI data received.
	MIM_ERROR     = 0x3C5 // MIDI error.
	MIM_LONGERROR = 0x3C6 // Long MIDI error.
	MIM_MOREDATA  = 0x3CC // More MIDI data available.
)

// Error definitions for winmm adapter issues.
var (
	ErrForeignHandle      = errors.New("handle does not belong to the winmm subsystem")
	ErrPortClosed         = errors.New("winmm port closed")
	ErrNoOutputDevices    = errors.New("no MIDI output devices available")
	ErrUnknownDestination = errors.New("unknown MIDI destination")
	ErrBadMessageSize     = errors.New("message does not fit a short MIDI message")
	ErrDeviceOpenFailed   = errors.New("could not open any MIDI device")
)

// Load the winmm.dll library and required functions.
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs  = winmm.NewProc("midiInGetNumDevs")
	procMidiInOpen        = winmm.NewProc("midiInOpen")
	procMidiInStart       = winmm.NewProc("midiInStart")
	procMidiInStop        = winmm.NewProc("midiInStop")
	procMidiInClose       = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// midiInCallbackPtr is created once; winmm callbacks are a scarce
// process-wide resource.
var midiInCallbackPtr = windows.NewCallback(midiInCallback)

// Subsystem drives winmm. It is stateless; all state lives in the
// handles it mints.
type Subsystem struct {
	logger contracts.Logger
}

// New creates a winmm subsystem.
func New(logger contracts.Logger) *Subsystem {
	return &Subsystem{logger: logger}
}

// OpenClient creates a logical connection. winmm has no client object;
// the handle only carries the name and scopes the ports.
func (s *Subsystem) OpenClient(name string) (contracts.ClientHandle, error) {
	s.logger.Info("winmm client created", s.logger.Field().String("client", name))
	return &clientHandle{name: name}, nil
}

// OpenInputPort opens and starts every MIDI input device, merging their
// streams into one port. A machine without input devices yields an empty
// port, which is valid for send-only sessions; devices that are present
// but all fail to open are an error.
func (s *Subsystem) OpenInputPort(client contracts.ClientHandle, name string, deliver contracts.DeliveryFunc) (contracts.InputPort, error) {
	if _, ok := client.(*clientHandle); !ok {
		return nil, ErrForeignHandle
	}

	port := &inputPort{logger: s.logger, deliver: deliver}

	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		s.logger.Warn("no MIDI input devices found; input port opened empty")
		return port, nil
	}

	for id := uint32(0); id < numDevices; id++ {
		var handle HMIDIIN
		r1, _, err := procMidiInOpen.Call(
			uintptr(unsafe.Pointer(&handle)),
			uintptr(id),
			midiInCallbackPtr,
			uintptr(unsafe.Pointer(port)),
			uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
		)
		if r1 != 0 {
			s.logger.Warn(fmt.Sprintf("failed to open MIDI input device %d: %v", id, err))
			continue
		}
		if r1, _, err := procMidiInStart.Call(uintptr(handle)); r1 != 0 {
			s.logger.Warn(fmt.Sprintf("failed to start MIDI input device %d: %v", id, err))
			procMidiInClose.Call(uintptr(handle))
			continue
		}
		port.handles = append(port.handles, handle)
	}
	if len(port.handles) == 0 {
		return nil, fmt.Errorf("%w: %d input device(s) present", ErrDeviceOpenFailed, numDevices)
	}

	s.logger.Info("input port started",
		s.logger.Field().String("port", name),
		s.logger.Field().Int("devices", len(port.handles)))
	return port, nil
}

// OpenOutputPort opens every MIDI output device under one port so the
// transmit destination can index them.
func (s *Subsystem) OpenOutputPort(client contracts.ClientHandle, name string) (contracts.OutputPort, error) {
	if _, ok := client.(*clientHandle); !ok {
		return nil, ErrForeignHandle
	}

	port := &outputPort{logger: s.logger}

	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		s.logger.Warn("no MIDI output devices found; output port opened empty")
		return port, nil
	}

	for id := uint32(0); id < numDevices; id++ {
		var handle HMIDIOUT
		r1, _, err := procMidiOutOpen.Call(
			uintptr(unsafe.Pointer(&handle)),
			uintptr(id),
			0,
			0,
			uintptr(CALLBACK_NULL),
		)
		if r1 != 0 {
			s.logger.Warn(fmt.Sprintf("failed to open MIDI output device %d: %v", id, err))
			continue
		}
		port.handles = append(port.handles, handle)
	}
	if len(port.handles) == 0 {
		return nil, fmt.Errorf("%w: %d output device(s) present", ErrDeviceOpenFailed, numDevices)
	}

	s.logger.Info("output port opened",
		s.logger.Field().String("port", name),
		s.logger.Field().Int("devices", len(port.handles)))
	return port, nil
}

// Transmit packs data into a short MIDI message and sends it.
// DestinationAll broadcasts to every opened output device; values >= 0
// index them.
func (s *Subsystem) Transmit(out contracts.OutputPort, destination int, data []byte) error {
	p, ok := out.(*outputPort)
	if !ok {
		return ErrForeignHandle
	}
	if len(data) == 0 || len(data) > 3 {
		return fmt.Errorf("%w: %d byte(s)", ErrBadMessageSize, len(data))
	}

	msg := uintptr(data[0])
	if len(data) > 1 {
		msg |= uintptr(data[1]) << 8
	}
	if len(data) > 2 {
		msg |= uintptr(data[2]) << 16
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	if len(p.handles) == 0 {
		return ErrNoOutputDevices
	}

	if destination == contracts.DestinationAll {
		for id, handle := range p.handles {
			if r1, _, err := procMidiOutShortMsg.Call(uintptr(handle), msg); r1 != 0 {
				return fmt.Errorf("error sending to output device %d: %v", id, err)
			}
		}
		return nil
	}

	if destination < 0 || destination >= len(p.handles) {
		return fmt.Errorf("%w: %d", ErrUnknownDestination, destination)
	}
	r1, _, err := procMidiOutShortMsg.Call(uintptr(p.handles[destination]), msg)
	if r1 != 0 {
		return fmt.Errorf("error sending to output device %d: %v", destination, err)
	}
	return nil
}

// midiInCallback processes incoming MIDI messages for all devices merged
// into one input port. It runs on a thread winmm owns and must not take
// the port mutex: midiInClose blocks on in-flight callbacks.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	port := (*inputPort)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		port.logger.Debug("MIDI input device opened")
	case MIM_CLOSE:
		port.logger.Debug("MIDI input device closed")
	case MIM_DATA:
		status := byte(dwParam1 & 0xFF)
		data1 := byte((dwParam1 >> 8) & 0xFF)
		data2 := byte((dwParam1 >> 16) & 0xFF)

		data := []byte{status, data1, data2}
		switch {
		case status >= 0xF8:
			// System realtime messages are a single byte.
			data = data[:1]
		case status&0xF0 == 0xC0 || status&0xF0 == 0xD0:
			// Program change and channel pressure carry one data byte.
			data = data[:2]
		}

		packets := &contracts.PacketList{Packets: []contracts.Packet{{
			Timestamp: uint64(time.Now().UTC().UnixNano()),
			Data:      data,
		}}}
		port.deliver(packets, hMidiIn)
	case MIM_ERROR, MIM_LONGERROR:
		port.logger.Error(fmt.Sprintf("MIDI input error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		port.logger.Debug("received MIM_MOREDATA message; ignored")
	default:
		port.logger.Warn(fmt.Sprintf("unknown MIDI input message: 0x%X", wMsg))
	}

	return 0
}

// clientHandle is winmm's logical client.
type clientHandle struct {
	name string
}

func (c *clientHandle) Close() error {
	return nil
}

// inputPort merges every opened input device into one stream.
type inputPort struct {
	logger  contracts.Logger
	deliver contracts.DeliveryFunc

	mu      sync.Mutex
	handles []HMIDIIN
	closed  bool
}

// Close stops and closes every merged device. Failures are aggregated;
// the port is unusable afterwards either way.
func (p *inputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs error
	for _, handle := range p.handles {
		if r1, _, err := procMidiInStop.Call(uintptr(handle)); r1 != 0 {
			errs = multierr.Append(errs, fmt.Errorf("midiInStop: %v", err))
		}
		if r1, _, err := procMidiInClose.Call(uintptr(handle)); r1 != 0 {
			errs = multierr.Append(errs, fmt.Errorf("midiInClose: %v", err))
		}
	}
	p.handles = nil
	return errs
}

// outputPort holds every opened output device.
type outputPort struct {
	logger contracts.Logger

	mu      sync.Mutex
	handles []HMIDIOUT
	closed  bool
}

func (p *outputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs error
	for _, handle := range p.handles {
		if r1, _, err := procMidiOutClose.Call(uintptr(handle)); r1 != 0 {
			errs = multierr.Append(errs, fmt.Errorf("midiOutClose: %v", err))
		}
	}
	p.handles = nil
	return errs
}
