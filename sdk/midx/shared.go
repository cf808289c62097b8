package midx

import (
	"sync"

	"github.com/phntmzn/midx/sdk/contracts"
)

// sharedSession lazily builds the process-wide session on first use.
var sharedSession = sync.OnceValues(func() (contracts.Session, error) {
	return NewSession()
})

// Shared returns the process-wide session, created with default options
// on the first call. Every call observes the same instance (or the same
// construction error). Hosts that need custom options should build their
// own session with NewSession instead.
func Shared() (contracts.Session, error) {
	return sharedSession()
}
