package contracts

// DestinationAll selects every destination the subsystem can reach.
const DestinationAll = -1

// DeliveryFunc receives incoming packet lists from the device subsystem.
// The subsystem invokes it on a thread it owns; the packet list is only
// valid for the duration of the call.
type DeliveryFunc func(packets *PacketList, refCon any)

// ClientHandle represents a connection to the device subsystem.
type ClientHandle interface {
	// Close releases the client. It is idempotent and best-effort.
	Close() error
}

// InputPort receives MIDI data from the subsystem's sources.
type InputPort interface {
	// Close detaches the port from its sources. It is idempotent and
	// best-effort; no new deliveries begin after it returns.
	Close() error
}

// OutputPort sends MIDI data toward the subsystem's destinations.
type OutputPort interface {
	// Close releases the port. It is idempotent and best-effort.
	Close() error
}

// DeviceSubsystem is the narrow boundary to a platform MIDI transport.
// Implementations own the delivery thread and interpret destination
// selectors; DestinationAll means broadcast, values >= 0 are
// subsystem-specific indexes.
type DeviceSubsystem interface {
	// OpenClient creates a named connection to the subsystem.
	OpenClient(name string) (ClientHandle, error)
	// OpenInputPort creates an input port attached to the available
	// sources and registers deliver as its callback.
	OpenInputPort(client ClientHandle, name string, deliver DeliveryFunc) (InputPort, error)
	// OpenOutputPort creates an output port for transmission.
	OpenOutputPort(client ClientHandle, name string) (OutputPort, error)
	// Transmit sends one encoded MIDI message through the output port to
	// the selected destination.
	Transmit(out OutputPort, destination int, data []byte) error
}
