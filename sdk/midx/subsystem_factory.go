package midx

import (
	"errors"
	"fmt"

	"github.com/phntmzn/midx/internal/device/coremidi"
	"github.com/phntmzn/midx/internal/device/loopback"
	"github.com/phntmzn/midx/internal/device/portmidi"
	"github.com/phntmzn/midx/internal/device/winmm"
	"github.com/phntmzn/midx/sdk/contracts"
)

// ErrUnsupportedOS is returned when no device subsystem exists for the
// operating system and none was injected through the options.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// subsystemInitializers maps OS names to device subsystem constructors.
var subsystemInitializers = map[string]func(contracts.Logger) contracts.DeviceSubsystem{
	"darwin":  func(l contracts.Logger) contracts.DeviceSubsystem { return coremidi.New(l) }, // macOS (Darwin) CoreMIDI subsystem.
	"windows": func(l contracts.Logger) contracts.DeviceSubsystem { return winmm.New(l) },    // Windows winmm subsystem.
}

// newSubsystemFor selects the device subsystem registered for goos.
func newSubsystemFor(goos string, logger contracts.Logger) (contracts.DeviceSubsystem, error) {
	if initializer, exists := subsystemInitializers[goos]; exists {
		return initializer(logger), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}

// NewLoopbackSubsystem creates the in-process virtual cable subsystem.
// Sessions over it deliver everything they transmit back to their own
// input port, which makes it useful for tests and for wiring MIDI
// between components of one process. Pass it to NewSession through
// WithDeviceSubsystem.
func NewLoopbackSubsystem(logger contracts.Logger) contracts.DeviceSubsystem {
	return loopback.New(logger)
}

// NewPortMidiSubsystem creates the PortMidi-backed subsystem. It only
// reaches real devices when the binary is built with the portmidi tag;
// without it every operation fails with an unavailability error.
func NewPortMidiSubsystem(logger contracts.Logger) contracts.DeviceSubsystem {
	return portmidi.New(logger)
}
