// Package loopback implements the device subsystem as an in-process
// virtual cable: every message transmitted through one of its output
// ports is delivered to every open input port of the same subsystem.
// It needs no hardware and no platform driver, which makes it the
// subsystem of choice for tests and for hosts that wire MIDI between
// components of the same process.
package loopback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/phntmzn/midx/sdk/contracts"
)

// Error definitions for handle misuse.
var (
	ErrForeignHandle = errors.New("handle does not belong to the loopback subsystem")
	ErrClientClosed  = errors.New("loopback client closed")
	ErrPortClosed    = errors.New("loopback port closed")
	ErrNilDelivery   = errors.New("nil delivery callback")
)

// delivery is one transmitted message on its way across the cable.
type delivery struct {
	data   []byte
	source string
}

// Subsystem is a virtual MIDI cable. The zero value is not usable; create
// instances with New.
type Subsystem struct {
	logger contracts.Logger
	inputs cmap.ConcurrentMap[string, *inputPort]
	queue  chan delivery
	pump   sync.Once
}

// New creates a loopback subsystem.
func New(logger contracts.Logger) *Subsystem {
	return &Subsystem{
		logger: logger,
		inputs: cmap.New[*inputPort](),
		queue:  make(chan delivery, 64),
	}
}

// OpenClient creates a named connection to the cable. It never fails.
func (s *Subsystem) OpenClient(name string) (contracts.ClientHandle, error) {
	client := &clientHandle{id: uuid.NewString(), name: name}
	s.logger.Debug("loopback client opened", s.logger.Field().String("client", name))
	return client, nil
}

// OpenInputPort registers deliver as a consumer of everything transmitted
// on the cable. Deliveries run sequentially on the cable's own goroutine.
func (s *Subsystem) OpenInputPort(client contracts.ClientHandle, name string, deliver contracts.DeliveryFunc) (contracts.InputPort, error) {
	if err := s.checkClient(client); err != nil {
		return nil, err
	}
	if deliver == nil {
		return nil, ErrNilDelivery
	}

	port := &inputPort{
		id:      uuid.NewString(),
		name:    name,
		sub:     s,
		deliver: deliver,
	}
	s.inputs.Set(port.id, port)
	s.logger.Debug("loopback input port opened", s.logger.Field().String("port", name))
	return port, nil
}

// OpenOutputPort creates a sender on the cable.
func (s *Subsystem) OpenOutputPort(client contracts.ClientHandle, name string) (contracts.OutputPort, error) {
	if err := s.checkClient(client); err != nil {
		return nil, err
	}

	port := &outputPort{id: uuid.NewString(), name: name}
	s.logger.Debug("loopback output port opened", s.logger.Field().String("port", name))
	return port, nil
}

// Transmit copies data onto the cable. The cable has a single wire, so
// every destination selector reaches the same set of input ports. The
// output port's name is passed to consumers as the delivery refCon.
func (s *Subsystem) Transmit(out contracts.OutputPort, destination int, data []byte) error {
	port, ok := out.(*outputPort)
	if !ok {
		return ErrForeignHandle
	}
	if port.isClosed() {
		return fmt.Errorf("%w: output %q", ErrPortClosed, port.name)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.pump.Do(func() { go s.run() })
	s.queue <- delivery{data: buf, source: port.name}
	return nil
}

// run is the cable's delivery goroutine. It starts on the first Transmit
// and keeps draining for the lifetime of the subsystem.
func (s *Subsystem) run() {
	for d := range s.queue {
		packets := &contracts.PacketList{Packets: []contracts.Packet{{
			Timestamp: uint64(time.Now().UTC().UnixNano()),
			Data:      d.data,
		}}}
		for _, port := range s.inputs.Items() {
			port.invoke(packets, d.source)
		}
	}
}

// checkClient verifies the handle was minted by OpenClient and is still open.
func (s *Subsystem) checkClient(client contracts.ClientHandle) error {
	c, ok := client.(*clientHandle)
	if !ok {
		return ErrForeignHandle
	}
	if c.isClosed() {
		return fmt.Errorf("%w: client %q", ErrClientClosed, c.name)
	}
	return nil
}

// clientHandle is a logical connection to the cable.
type clientHandle struct {
	id   string
	name string

	mu     sync.Mutex
	closed bool
}

func (c *clientHandle) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *clientHandle) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// inputPort is a registered consumer on the cable.
type inputPort struct {
	id      string
	name    string
	sub     *Subsystem
	deliver contracts.DeliveryFunc

	mu     sync.Mutex
	closed bool
}

// invoke runs the delivery callback unless the port has been closed. The
// mutex orders invoke against Close so that no delivery starts after
// Close has returned.
func (p *inputPort) invoke(packets *contracts.PacketList, refCon any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.deliver(packets, refCon)
}

func (p *inputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.sub.inputs.Remove(p.id)
	return nil
}

// outputPort is a sender on the cable.
type outputPort struct {
	id   string
	name string

	mu     sync.Mutex
	closed bool
}

func (p *outputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *outputPort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
