//go:build !portmidi
// +build !portmidi

package portmidi

import (
	"errors"

	"github.com/phntmzn/midx/sdk/contracts"
)

// ErrUnavailable is returned for every operation when the package is
// built without the portmidi tag.
var ErrUnavailable = errors.New("PortMidi support is not compiled in; build with -tags portmidi")

// Subsystem is the stand-in used without the portmidi build tag.
type Subsystem struct {
	logger contracts.Logger
}

func New(logger contracts.Logger) *Subsystem {
	logger.Warn("PortMidi subsystem requested without the portmidi build tag")
	return &Subsystem{logger: logger}
}

func (s *Subsystem) OpenClient(name string) (contracts.ClientHandle, error) {
	return nil, ErrUnavailable
}

func (s *Subsystem) OpenInputPort(client contracts.ClientHandle, name string, deliver contracts.DeliveryFunc) (contracts.InputPort, error) {
	return nil, ErrUnavailable
}

func (s *Subsystem) OpenOutputPort(client contracts.ClientHandle, name string) (contracts.OutputPort, error) {
	return nil, ErrUnavailable
}

func (s *Subsystem) Transmit(out contracts.OutputPort, destination int, data []byte) error {
	return ErrUnavailable
}
