//go:build !windows
// +build !windows

package winmm

import (
	"errors"

	"github.com/phntmzn/midx/sdk/contracts"
)

// ErrUnavailable is returned for every operation on platforms without winmm.
var ErrUnavailable = errors.New("winmm is not available on this platform")

// Subsystem is the stand-in used when the package is built off Windows.
type Subsystem struct {
	logger contracts.Logger
}

func New(logger contracts.Logger) *Subsystem {
	logger.Warn("winmm subsystem requested on a non-Windows platform")
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
