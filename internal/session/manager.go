// Package session implements the MIDI session lifecycle over a device
// subsystem: a client handle plus one input and one output port, a
// Started/Stopped state machine guarding every send, and the bridge that
// dispatches incoming packets to the registered consumer.
package session

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/phntmzn/midx/sdk/contracts"
	"github.com/phntmzn/midx/sdk/message"
	"go.uber.org/multierr"
)

// Manager is the session state machine. Handles are held iff the session
// is started; sends fail with ErrNotStarted otherwise. All methods are
// safe for concurrent use.
type Manager struct {
	logger      contracts.Logger
	subsystem   contracts.DeviceSubsystem
	config      contracts.ClientConfig
	destination int
	filter      *contracts.EventFilter

	lifecycle sync.Mutex // Serializes Start and Stop end to end, handle closes included.

	mu      sync.Mutex // Guards the state flag and the handle set.
	started bool
	client  contracts.ClientHandle
	input   contracts.InputPort
	output  contracts.OutputPort

	handler atomic.Value // Snapshot of the inbound handler, read lock-free on delivery.
}

// NewManager creates a stopped session over the given device subsystem.
// options must carry a Logger and ClientConfig; the sdk factory applies
// defaults before calling here.
func NewManager(subsystem contracts.DeviceSubsystem, options *contracts.SessionOptions) *Manager {
	m := &Manager{
		logger:      options.Logger,
		subsystem:   subsystem,
		config:      *options.ClientConfig,
		destination: options.Destination,
		filter:      options.EventFilter,
	}
	m.handler.Store(handlerBox{})
	return m
}

// Start acquires the client, then the input port with the dispatch bridge
// as its delivery callback, then the output port. On any failure the
// handles already acquired are released in reverse order and the session
// stays stopped. Starting a started session is a no-op. Sends fail with
// ErrNotStarted until the full handle set is installed.
func (m *Manager) Start() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.Started() {
		m.logger.Debug("session already started")
		return nil
	}

	client, err := m.subsystem.OpenClient(m.config.ClientName)
	if err != nil {
		m.logger.Error("failed to open MIDI client", m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", contracts.ErrDeviceUnavailable, err)
	}

	input, err := m.subsystem.OpenInputPort(client, m.config.InputPortName, m.deliver)
	if err != nil {
		m.closeQuietly("client", client)
		m.logger.Error("failed to open input port", m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", contracts.ErrPortCreationFailed, err)
	}

	output, err := m.subsystem.OpenOutputPort(client, m.config.OutputPortName)
	if err != nil {
		m.closeQuietly("input port", input)
		m.closeQuietly("client", client)
		m.logger.Error("failed to open output port", m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", contracts.ErrPortCreationFailed, err)
	}

	m.mu.Lock()
	m.client, m.input, m.output = client, input, output
	m.started = true
	m.mu.Unlock()

	m.logger.Info("MIDI session started", m.logger.Field().String("client", m.config.ClientName))
	return nil
}

// Stop closes the input port first so no new deliveries begin during
// teardown, then the output port, then the client, and clears the inbound
// handler registration. Release errors are aggregated and logged, never
// propagated. Stopping a stopped session is a no-op; the session may be
// started again. The handle set is detached before any Close call, so
// deliveries still in flight that send through the session see it stopped.
func (m *Manager) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		m.logger.Debug("session already stopped")
		return
	}
	client, input, output := m.client, m.input, m.output
	m.client, m.input, m.output = nil, nil, nil
	m.started = false
	m.mu.Unlock()

	m.handler.Store(handlerBox{})

	err := multierr.Combine(
		input.Close(),
		output.Close(),
		client.Close(),
	)
	if err != nil {
		m.logger.Warn("session stopped with release errors", m.logger.Field().Error("error", err))
		return
	}
	m.logger.Info("MIDI session stopped")
}

// Started reports whether the session currently holds device resources.
func (m *Manager) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// SendNoteOn transmits a Note On message. Channel is 1-16.
func (m *Manager) SendNoteOn(note, velocity, channel uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return contracts.ErrNotStarted
	}
	data, err := message.EncodeNoteOn(note, velocity, channel)
	if err != nil {
		return err
	}
	return m.transmitLocked(data)
}

// SendNoteOff transmits a Note Off message. Channel is 1-16.
func (m *Manager) SendNoteOff(note, channel uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return contracts.ErrNotStarted
	}
	data, err := message.EncodeNoteOff(note, channel)
	if err != nil {
		return err
	}
	return m.transmitLocked(data)
}

// SendControlChange transmits a Control Change message. Channel is 1-16.
func (m *Manager) SendControlChange(controller, value, channel uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return contracts.ErrNotStarted
	}
	data, err := message.EncodeControlChange(controller, value, channel)
	if err != nil {
		return err
	}
	return m.transmitLocked(data)
}

// SendProgramChange transmits a Program Change message. Channel is 1-16.
func (m *Manager) SendProgramChange(program, channel uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return contracts.ErrNotStarted
	}
	data, err := message.EncodeProgramChange(program, channel)
	if err != nil {
		return err
	}
	return m.transmitLocked(data)
}

// RegisterInboundHandler installs h as the consumer of incoming packets,
// replacing any previous registration. Registration is legal while
// stopped and takes effect from the next delivery.
func (m *Manager) RegisterInboundHandler(h contracts.InboundHandler) {
	m.handler.Store(handlerBox{fn: h})
	m.logger.Debug("inbound handler registered")
}

// transmitLocked hands one encoded message to the subsystem. Callers hold mu.
func (m *Manager) transmitLocked(data []byte) error {
	if err := m.subsystem.Transmit(m.output, m.destination, data); err != nil {
		m.logger.Error("MIDI transmit rejected", m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", contracts.ErrSendFailed, err)
	}
	return nil
}

// closeQuietly releases a handle during rollback, logging on failure.
func (m *Manager) closeQuietly(what string, c io.Closer) {
	if err := c.Close(); err != nil {
		m.logger.Warn("failed to release "+what, m.logger.Field().Error("error", err))
	}
}
