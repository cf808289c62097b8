// Package midx is the public entry point of the library: it builds MIDI
// sessions over the device subsystem that fits the host platform, or
// over one injected through the options.
package midx

import (
	"runtime"

	"github.com/phntmzn/midx/internal/session"
	"github.com/phntmzn/midx/sdk/contracts"
)

// NewSession creates a stopped MIDI session with the specified options.
// It applies default options, selects the platform device subsystem
// unless one was injected, and wires the session over it.
//
// opts ...contracts.Option: A variadic list of option functions to customize the session configuration.
//
// Returns:
//   - contracts.Session: The session, in the stopped state.
//   - error: An error if no device subsystem exists for this platform.
func NewSession(opts ...contracts.Option) (contracts.Session, error) {
	options := applyDefaultOptions(opts...)

	subsystem := options.Subsystem
	if subsystem == nil {
		var err error
		subsystem, err = newSubsystemFor(runtime.GOOS, options.Logger)
		if err != nil {
			return nil, err
		}
	}

	return session.NewManager(subsystem, &options), nil
}
