package midx

import (
	"github.com/phntmzn/midx/internal/logger"
	"github.com/phntmzn/midx/sdk/contracts"
)

// applyDefaultOptions sets default values for SessionOptions if not
// explicitly provided: a production zap logger, generic client and port
// names, and broadcast as the transmit destination.
func applyDefaultOptions(opts ...contracts.Option) contracts.SessionOptions {
	options := &contracts.SessionOptions{
		Destination: contracts.DestinationAll,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.ClientConfig == nil {
		options.ClientConfig = &contracts.ClientConfig{
			ClientName:     "midx client",
			InputPortName:  "midx input",
			OutputPortName: "midx output",
		}
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}
