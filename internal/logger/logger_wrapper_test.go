package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/phntmzn/midx/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*ZapLogger, *observer.ObservedLogs) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core, logs := observer.New(level)
	return &ZapLogger{logger: zap.New(core), level: level}, logs
}

func TestZapLogger(t *testing.T) {
	t.Run("emits structured fields", func(t *testing.T) {
		log, logs := newObservedLogger()

		log.Info("session started",
			log.Field().String("client", "midx"),
			log.Field().Int("ports", 2),
		)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "session started", entries[0].Message)

		fields := entries[0].ContextMap()
		assert.Equal(t, "midx", fields["client"])
		assert.Equal(t, int64(2), fields["ports"])
	})

	t.Run("suppresses messages below the configured level", func(t *testing.T) {
		log, logs := newObservedLogger()

		log.Debug("hidden")
		assert.Equal(t, 0, logs.Len())

		log.SetLevel(contracts.DebugLevel)
		log.Debug("visible")
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("builds every field kind", func(t *testing.T) {
		log, logs := newObservedLogger()

		log.Warn("kinds",
			log.Field().Bool("b", true),
			log.Field().Float64("f", 1.5),
			log.Field().Time("t", time.Now()),
			log.Field().Int64("i64", -7),
			log.Field().Error("err", errors.New("boom")),
			log.Field().Uint64("u64", 7),
			log.Field().Uint8("u8", 7),
		)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Len(t, entries[0].Context, 7)
	})

	t.Run("nop logger discards everything", func(t *testing.T) {
		log := NewNop()

		log.Info("into the void", log.Field().String("k", "v"))
		log.Error("also discarded")
	})
}
