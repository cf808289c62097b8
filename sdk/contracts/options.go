package contracts

// EventFilter allows users to specify which MIDI commands to deliver.
// Packets whose command nibble is not listed are dropped before the
// inbound handler runs.
type EventFilter struct {
	Commands []Command // List of MIDI commands to deliver.
}

// ClientConfig holds the names a session registers with the device subsystem.
type ClientConfig struct {
	ClientName     string // Name of the MIDI client.
	InputPortName  string // Name of the input port.
	OutputPortName string // Name of the output port.
}

// SessionOptions defines the configuration options for a MIDI session.
type SessionOptions struct {
	Logger       Logger          // Logger for logging events and errors.
	LogLevel     LogLevel        // Level of logging to use.
	ClientConfig *ClientConfig   // Names registered with the device subsystem.
	EventFilter  *EventFilter    // Optional filter for incoming MIDI events.
	Subsystem    DeviceSubsystem // Device subsystem override; defaults to the platform's.
	Destination  int             // Destination selector passed to Transmit.
}

// Option is a function that modifies SessionOptions.
type Option func(*SessionOptions)

// WithLogger sets the logger for the session.
func WithLogger(l Logger) Option {
	return func(opts *SessionOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the session.
func WithLogLevel(level LogLevel) Option {
	return func(opts *SessionOptions) {
		opts.LogLevel = level
	}
}

// WithClientConfig sets the client and port names registered with the
// device subsystem.
func WithClientConfig(config ClientConfig) Option {
	return func(opts *SessionOptions) {
		opts.ClientConfig = &config
	}
}

// WithEventFilter sets the inbound MIDI event filter for the session.
func WithEventFilter(filter EventFilter) Option {
	return func(opts *SessionOptions) {
		opts.EventFilter = &filter
	}
}

// WithDeviceSubsystem sets the device subsystem the session runs on,
// bypassing platform selection.
func WithDeviceSubsystem(sub DeviceSubsystem) Option {
	return func(opts *SessionOptions) {
		opts.Subsystem = sub
	}
}

// WithDestination sets the destination selector for outgoing messages.
// The default is DestinationAll.
func WithDestination(destination int) Option {
	return func(opts *SessionOptions) {
		opts.Destination = destination
	}
}
