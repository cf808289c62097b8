//go:build portmidi
// +build portmidi

// Package portmidi adapts the PortMidi library to the device subsystem
// boundary. It is built behind the portmidi tag for hosts that route
// MIDI through PortMidi instead of the platform services; without the
// tag every operation reports the subsystem as unavailable.
package portmidi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	pm "github.com/rakyll/portmidi"

	"github.com/phntmzn/midx/sdk/contracts"
)

// Error definitions for PortMidi adapter issues.
var (
	ErrForeignHandle      = errors.New("handle does not belong to the PortMidi subsystem")
	ErrPortClosed         = errors.New("PortMidi port closed")
	ErrNoOutputDevice     = errors.New("no default PortMidi output device")
	ErrUnknownDestination = errors.New("unknown MIDI destination")
	ErrBadMessageSize     = errors.New("message does not fit a short MIDI message")
)

// streamBufferSize is the PortMidi event buffer for both directions.
const streamBufferSize = 1024

// Subsystem drives PortMidi through its default input and output devices.
type Subsystem struct {
	logger contracts.Logger
}

// New creates a PortMidi subsystem.
func New(logger contracts.Logger) *Subsystem {
	return &Subsystem{logger: logger}
}

// OpenClient initializes the PortMidi library. Closing the handle
// terminates it again.
func (s *Subsystem) OpenClient(name string) (contracts.ClientHandle, error) {
	if err := pm.Initialize(); err != nil {
		return nil, fmt.Errorf("error initializing PortMidi: %w", err)
	}
	s.logger.Info("PortMidi initialized", s.logger.Field().String("client", name))
	return &clientHandle{}, nil
}

// OpenInputPort opens the default input device and pumps its events to
// deliver on a dedicated goroutine. A host without input devices yields
// an empty port, which is valid for send-only sessions.
func (s *Subsystem) OpenInputPort(client contracts.ClientHandle, name string, deliver contracts.DeliveryFunc) (contracts.InputPort, error) {
	if _, ok := client.(*clientHandle); !ok {
		return nil, ErrForeignHandle
	}

	id := pm.DefaultInputDeviceID()
	if id < 0 {
		s.logger.Warn("no default PortMidi input device; input port opened empty")
		return &inputPort{logger: s.logger}, nil
	}

	stream, err := pm.NewInputStream(id, streamBufferSize)
	if err != nil {
		return nil, fmt.Errorf("error opening PortMidi input stream: %w", err)
	}

	port := &inputPort{
		logger: s.logger,
		stream: stream,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go port.pump(deliver, int(id))

	s.logger.Info("input port started",
		s.logger.Field().String("port", name),
		s.logger.Field().Int("device", int(id)))
	return port, nil
}

// OpenOutputPort opens the default output device.
func (s *Subsystem) OpenOutputPort(client contracts.ClientHandle, name string) (contracts.OutputPort, error) {
	if _, ok := client.(*clientHandle); !ok {
		return nil, ErrForeignHandle
	}

	id := pm.DefaultOutputDeviceID()
	if id < 0 {
		s.logger.Warn("no default PortMidi output device; output port opened empty")
		return &outputPort{logger: s.logger}, nil
	}

	stream, err := pm.NewOutputStream(id, streamBufferSize, 0)
	if err != nil {
		return nil, fmt.Errorf("error opening PortMidi output stream: %w", err)
	}

	s.logger.Info("output port opened",
		s.logger.Field().String("port", name),
		s.logger.Field().Int("device", int(id)))
	return &outputPort{logger: s.logger, stream: stream}, nil
}

// Transmit writes one short message to the default output device. The
// adapter drives a single device, so the only valid selectors are
// DestinationAll and 0.
func (s *Subsystem) Transmit(out contracts.OutputPort, destination int, data []byte) error {
	p, ok := out.(*outputPort)
	if !ok {
		return ErrForeignHandle
	}
	if len(data) == 0 || len(data) > 3 {
		return fmt.Errorf("%w: %d byte(s)", ErrBadMessageSize, len(data))
	}
	if destination != contracts.DestinationAll && destination != 0 {
		return fmt.Errorf("%w: %d", ErrUnknownDestination, destination)
	}

	var d1, d2 int64
	if len(data) > 1 {
		d1 = int64(data[1])
	}
	if len(data) > 2 {
		d2 = int64(data[2])
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	if p.stream == nil {
		return ErrNoOutputDevice
	}
	if err := p.stream.WriteShort(int64(data[0]), d1, d2); err != nil {
		return fmt.Errorf("error writing to PortMidi output: %w", err)
	}
	return nil
}

// clientHandle scopes the PortMidi library lifetime.
type clientHandle struct {
	mu     sync.Mutex
	closed bool
}

func (c *clientHandle) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := pm.Terminate(); err != nil {
		return fmt.Errorf("error terminating PortMidi: %w", err)
	}
	return nil
}

// inputPort pumps the default input device.
type inputPort struct {
	logger contracts.Logger
	stream *pm.Stream
	quit   chan struct{}
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// pump converts PortMidi events into packet lists until Close. It is the
// delivery thread for this subsystem.
func (p *inputPort) pump(deliver contracts.DeliveryFunc, device int) {
	defer close(p.done)

	events := p.stream.Listen()
	for {
		select {
		case ev := <-events:
			if len(ev.SysEx) > 0 {
				continue
			}
			status := byte(ev.Status)

			data := []byte{status, byte(ev.Data1), byte(ev.Data2)}
			switch {
			case status >= 0xF8:
				data = data[:1]
			case status&0xF0 == 0xC0 || status&0xF0 == 0xD0:
				data = data[:2]
			}

			packets := &contracts.PacketList{Packets: []contracts.Packet{{
				Timestamp: uint64(time.Now().UTC().UnixNano()),
				Data:      data,
			}}}
			deliver(packets, device)
		case <-p.quit:
			return
		}
	}
}

// Close stops the pump, waits for it to finish, and closes the stream.
func (p *inputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if p.stream == nil {
		return nil
	}
	close(p.quit)
	<-p.done
	if err := p.stream.Close(); err != nil {
		return fmt.Errorf("error closing PortMidi input stream: %w", err)
	}
	return nil
}

// outputPort wraps the default output device.
type outputPort struct {
	logger contracts.Logger
	stream *pm.Stream

	mu     sync.Mutex
	closed bool
}

func (p *outputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if p.stream == nil {
		return nil
	}
	if err := p.stream.Close(); err != nil {
		return fmt.Errorf("error closing PortMidi output stream: %w", err)
	}
	return nil
}
