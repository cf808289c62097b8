package midx

import (
	"testing"
	"time"

	"github.com/phntmzn/midx/internal/logger"
	"github.com/phntmzn/midx/sdk/contracts"
	"github.com/phntmzn/midx/sdk/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLoopbackSession builds a session over a fresh virtual cable.
func newLoopbackSession(t *testing.T) contracts.Session {
	t.Helper()
	log := logger.NewNop()
	sess, err := NewSession(
		contracts.WithLogger(log),
		contracts.WithDeviceSubsystem(NewLoopbackSubsystem(log)),
		contracts.WithClientConfig(contracts.ClientConfig{
			ClientName:     "test client",
			InputPortName:  "test in",
			OutputPortName: "test out",
		}),
	)
	require.NoError(t, err)
	return sess
}

func TestSessionOverLoopback(t *testing.T) {
	t.Run("sends come back decoded through the inbound handler", func(t *testing.T) {
		sess := newLoopbackSession(t)

		events := make(chan message.Event, 8)
		sess.RegisterInboundHandler(func(packets *contracts.PacketList, _ any) {
			for _, p := range packets.Packets {
				if ev, err := message.Parse(p.Data); err == nil {
					events <- ev
				}
			}
		})

		require.NoError(t, sess.Start())
		defer sess.Stop()

		require.NoError(t, sess.SendNoteOn(60, 100, 1))

		select {
		case ev := <-events:
			assert.Equal(t, message.Event{Command: contracts.NoteOn, Channel: 1, Data1: 60, Data2: 100}, ev)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for loopback delivery")
		}
	})

	t.Run("a restarted session delivers nothing until re-registration", func(t *testing.T) {
		sess := newLoopbackSession(t)

		events := make(chan message.Event, 8)
		sess.RegisterInboundHandler(func(packets *contracts.PacketList, _ any) {
			for _, p := range packets.Packets {
				if ev, err := message.Parse(p.Data); err == nil {
					events <- ev
				}
			}
		})

		require.NoError(t, sess.Start())
		require.NoError(t, sess.SendNoteOff(60, 1))
		select {
		case <-events:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for the first delivery")
		}

		sess.Stop()
		require.NoError(t, sess.Start())
		defer sess.Stop()

		require.NoError(t, sess.SendNoteOff(60, 1))
		select {
		case ev := <-events:
			t.Fatalf("delivery after restart without re-registration: %v", ev)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("sends fail once the session is stopped", func(t *testing.T) {
		sess := newLoopbackSession(t)

		require.NoError(t, sess.Start())
		sess.Stop()

		assert.ErrorIs(t, sess.SendControlChange(7, 127, 10), contracts.ErrNotStarted)
		assert.False(t, sess.Started())
	})
}

func TestSubsystemFactory(t *testing.T) {
	t.Run("returns ErrUnsupportedOS for unknown platforms", func(t *testing.T) {
		_, err := newSubsystemFor("plan9", logger.NewNop())

		assert.ErrorIs(t, err, ErrUnsupportedOS)
	})

	t.Run("registers darwin and windows", func(t *testing.T) {
		for _, goos := range []string{"darwin", "windows"} {
			sub, err := newSubsystemFor(goos, logger.NewNop())

			require.NoError(t, err)
			assert.NotNil(t, sub)
		}
	})
}

func TestApplyDefaultOptions(t *testing.T) {
	t.Run("fills the defaults", func(t *testing.T) {
		options := applyDefaultOptions()

		assert.NotNil(t, options.Logger)
		require.NotNil(t, options.ClientConfig)
		assert.Equal(t, "midx client", options.ClientConfig.ClientName)
		assert.Equal(t, contracts.DestinationAll, options.Destination)
		assert.Nil(t, options.EventFilter)
		assert.Nil(t, options.Subsystem)
	})

	t.Run("honors overrides", func(t *testing.T) {
		log := logger.NewNop()
		options := applyDefaultOptions(
			contracts.WithLogger(log),
			contracts.WithLogLevel(contracts.DebugLevel),
			contracts.WithDestination(2),
			contracts.WithEventFilter(contracts.EventFilter{Commands: []contracts.Command{contracts.NoteOn}}),
			contracts.WithClientConfig(contracts.ClientConfig{
				ClientName:     "custom",
				InputPortName:  "custom in",
				OutputPortName: "custom out",
			}),
		)

		assert.Same(t, log, options.Logger)
		assert.Equal(t, 2, options.Destination)
		require.NotNil(t, options.EventFilter)
		assert.Equal(t, []contracts.Command{contracts.NoteOn}, options.EventFilter.Commands)
		assert.Equal(t, "custom", options.ClientConfig.ClientName)
	})
}

func TestShared(t *testing.T) {
	s1, err1 := Shared()
	s2, err2 := Shared()

	assert.Equal(t, err1, err2)
	assert.True(t, s1 == s2, "Shared must return the same instance")
}
