//go:build darwin
// +build darwin

// Package coremidi adapts Apple's CoreMIDI services to the device
// subsystem boundary. Input ports connect to every source present when
// the port is opened; destinations are resolved at transmit time so
// endpoints plugged in later are still reachable.
package coremidi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phntmzn/midx/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI adapter issues.
var (
	ErrForeignHandle      = errors.New("handle does not belong to the CoreMIDI subsystem")
	ErrNoDestinations     = errors.New("no MIDI destinations found")
	ErrUnknownDestination = errors.New("unknown MIDI destination")
)

// Subsystem drives CoreMIDI. It is stateless; all state lives in the
// handles it mints.
type Subsystem struct {
	logger contracts.Logger
}

// New creates a CoreMIDI subsystem.
func New(logger contracts.Logger) *Subsystem {
	return &Subsystem{logger: logger}
}

// OpenClient registers a named client with the CoreMIDI server.
func (s *Subsystem) OpenClient(name string) (contracts.ClientHandle, error) {
	client, err := coremidi.NewClient(name)
	if err != nil {
		return nil, fmt.Errorf("error creating CoreMIDI client: %w", err)
	}
	s.logger.Info("CoreMIDI client created", s.logger.Field().String("client", name))
	return &clientHandle{client: client}, nil
}

// OpenInputPort creates an input port and connects it to all current
// sources. Sources that refuse the connection are logged and skipped; a
// session may legitimately run send-only.
func (s *Subsystem) OpenInputPort(client contracts.ClientHandle, name string, deliver contracts.DeliveryFunc) (contracts.InputPort, error) {
	c, ok := client.(*clientHandle)
	if !ok {
		return nil, ErrForeignHandle
	}

	port, err := coremidi.NewInputPort(c.client, name, func(source coremidi.Source, packet coremidi.Packet) {
		packets := &contracts.PacketList{Packets: []contracts.Packet{{
			Timestamp: uint64(time.Now().UTC().UnixNano()),
			Data:      packet.Data,
		}}}
		deliver(packets, source.Name())
	})
	if err != nil {
		return nil, fmt.Errorf("error creating input port: %w", err)
	}

	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}

	in := &inputPort{logger: s.logger}
	for _, source := range sources {
		conn, err := port.Connect(source)
		if err != nil {
			s.logger.Warn("failed to connect MIDI source",
				s.logger.Field().String("source", source.Name()),
				s.logger.Field().Error("error", err))
			continue
		}
		in.conns = append(in.conns, conn)
	}

	s.logger.Info("input port connected",
		s.logger.Field().String("port", name),
		s.logger.Field().Int("sources", len(in.conns)))
	return in, nil
}

// OpenOutputPort creates an output port for transmission.
func (s *Subsystem) OpenOutputPort(client contracts.ClientHandle, name string) (contracts.OutputPort, error) {
	c, ok := client.(*clientHandle)
	if !ok {
		return nil, ErrForeignHandle
	}

	port, err := coremidi.NewOutputPort(c.client, name)
	if err != nil {
		return nil, fmt.Errorf("error creating output port: %w", err)
	}
	return &outputPort{port: port}, nil
}

// Transmit sends one message. DestinationAll broadcasts to every current
// destination; values >= 0 index the destination list.
func (s *Subsystem) Transmit(out contracts.OutputPort, destination int, data []byte) error {
	p, ok := out.(*outputPort)
	if !ok {
		return ErrForeignHandle
	}

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		return ErrNoDestinations
	}

	// Timestamp 0 asks CoreMIDI to send immediately.
	packet := coremidi.NewPacket(data, 0)

	if destination == contracts.DestinationAll {
		for i := range destinations {
			if err := packet.Send(&p.port, &destinations[i]); err != nil {
				return fmt.Errorf("error sending to destination %d: %w", i, err)
			}
		}
		return nil
	}

	if destination < 0 || destination >= len(destinations) {
		return fmt.Errorf("%w: %d", ErrUnknownDestination, destination)
	}
	return packet.Send(&p.port, &destinations[destination])
}

// clientHandle wraps the CoreMIDI client. CoreMIDI reclaims clients when
// the process exits; the binding exposes no dispose call, so Close only
// marks the handle.
type clientHandle struct {
	client coremidi.Client
}

func (c *clientHandle) Close() error {
	return nil
}

// inputPort holds the source connections made at open time.
type inputPort struct {
	logger contracts.Logger

	mu    sync.Mutex
	conns []coremidi.PortConnection
}

func (p *inputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.conns {
		conn.Disconnect()
	}
	p.conns = nil
	return nil
}

// outputPort wraps the CoreMIDI output port.
type outputPort struct {
	port coremidi.OutputPort
}

func (p *outputPort) Close() error {
	return nil
}
