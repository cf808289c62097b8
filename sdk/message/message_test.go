package message

import (
	"testing"

	"github.com/phntmzn/midx/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNoteOn(t *testing.T) {
	t.Run("encodes note on for channel 1", func(t *testing.T) {
		data, err := EncodeNoteOn(60, 100, 1)

		require.NoError(t, err)
		assert.Equal(t, []byte{0x90, 60, 100}, data)
	})

	t.Run("maps the channel into the status nibble", func(t *testing.T) {
		data, err := EncodeNoteOn(60, 100, 16)

		require.NoError(t, err)
		assert.Equal(t, []byte{0x9F, 60, 100}, data)
	})

	t.Run("the status low nibble is channel-1 for every channel", func(t *testing.T) {
		for channel := uint8(1); channel <= 16; channel++ {
			data, err := EncodeNoteOn(60, 100, channel)

			require.NoError(t, err)
			assert.Equal(t, channel-1, data[0]&0x0F)
		}
	})

	t.Run("rejects note above 127", func(t *testing.T) {
		_, err := EncodeNoteOn(128, 100, 1)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})

	t.Run("rejects velocity above 127", func(t *testing.T) {
		_, err := EncodeNoteOn(60, 200, 1)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})

	t.Run("rejects channel 0", func(t *testing.T) {
		_, err := EncodeNoteOn(60, 100, 0)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})

	t.Run("rejects channel 17", func(t *testing.T) {
		_, err := EncodeNoteOn(60, 100, 17)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})
}

func TestEncodeNoteOff(t *testing.T) {
	t.Run("encodes note off with zero velocity", func(t *testing.T) {
		data, err := EncodeNoteOff(60, 1)

		require.NoError(t, err)
		assert.Equal(t, []byte{0x80, 60, 0}, data)
	})

	t.Run("rejects note above 127", func(t *testing.T) {
		_, err := EncodeNoteOff(255, 1)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})

	t.Run("rejects channel above 16", func(t *testing.T) {
		_, err := EncodeNoteOff(60, 99)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})
}

func TestEncodeControlChange(t *testing.T) {
	t.Run("encodes control change for channel 10", func(t *testing.T) {
		data, err := EncodeControlChange(7, 127, 10)

		require.NoError(t, err)
		assert.Equal(t, []byte{0xB9, 7, 127}, data)
	})

	t.Run("rejects controller above 127", func(t *testing.T) {
		_, err := EncodeControlChange(130, 0, 1)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})

	t.Run("rejects value above 127", func(t *testing.T) {
		_, err := EncodeControlChange(7, 128, 1)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})
}

func TestEncodeProgramChange(t *testing.T) {
	t.Run("encodes two bytes for channel 16", func(t *testing.T) {
		data, err := EncodeProgramChange(5, 16)

		require.NoError(t, err)
		assert.Equal(t, []byte{0xCF, 5}, data)
	})

	t.Run("rejects program above 127", func(t *testing.T) {
		_, err := EncodeProgramChange(200, 1)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})

	t.Run("rejects channel 0", func(t *testing.T) {
		_, err := EncodeProgramChange(5, 0)

		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})
}

func TestParse(t *testing.T) {
	t.Run("decodes note on", func(t *testing.T) {
		ev, err := Parse([]byte{0x91, 64, 99})

		require.NoError(t, err)
		assert.Equal(t, Event{Command: contracts.NoteOn, Channel: 2, Data1: 64, Data2: 99}, ev)
	})

	t.Run("normalizes note on with velocity zero to note off", func(t *testing.T) {
		ev, err := Parse([]byte{0x90, 64, 0})

		require.NoError(t, err)
		assert.Equal(t, contracts.NoteOff, ev.Command)
		assert.Equal(t, uint8(64), ev.Data1)
	})

	t.Run("decodes program change from two bytes", func(t *testing.T) {
		ev, err := Parse([]byte{0xCF, 5})

		require.NoError(t, err)
		assert.Equal(t, Event{Command: contracts.ProgramChange, Channel: 16, Data1: 5}, ev)
	})

	t.Run("round trips encoder output", func(t *testing.T) {
		data, err := EncodeControlChange(7, 127, 10)
		require.NoError(t, err)

		ev, err := Parse(data)

		require.NoError(t, err)
		assert.Equal(t, Event{Command: contracts.ControlChange, Channel: 10, Data1: 7, Data2: 127}, ev)
	})

	t.Run("ignores trailing bytes", func(t *testing.T) {
		ev, err := Parse([]byte{0x80, 60, 0, 0x90, 61, 100})

		require.NoError(t, err)
		assert.Equal(t, contracts.NoteOff, ev.Command)
		assert.Equal(t, uint8(60), ev.Data1)
	})

	t.Run("masks the high bit of data bytes", func(t *testing.T) {
		ev, err := Parse([]byte{0x90, 0xFF, 0xFF})

		require.NoError(t, err)
		assert.Equal(t, uint8(127), ev.Data1)
		assert.Equal(t, uint8(127), ev.Data2)
	})

	t.Run("rejects an empty buffer", func(t *testing.T) {
		_, err := Parse(nil)

		assert.ErrorIs(t, err, ErrTruncatedMessage)
	})

	t.Run("rejects a short note on", func(t *testing.T) {
		_, err := Parse([]byte{0x90, 60})

		assert.ErrorIs(t, err, ErrTruncatedMessage)
	})

	t.Run("rejects a short program change", func(t *testing.T) {
		_, err := Parse([]byte{0xC0})

		assert.ErrorIs(t, err, ErrTruncatedMessage)
	})

	t.Run("rejects system realtime status", func(t *testing.T) {
		_, err := Parse([]byte{0xF8})

		assert.ErrorIs(t, err, ErrUnsupportedMessage)
	})

	t.Run("rejects a data byte in status position", func(t *testing.T) {
		_, err := Parse([]byte{0x42, 60, 100})

		assert.ErrorIs(t, err, ErrUnsupportedMessage)
	})

	t.Run("rejects commands outside the channel-voice set", func(t *testing.T) {
		_, err := Parse([]byte{0xA0, 60, 100})

		assert.ErrorIs(t, err, ErrUnsupportedMessage)
	})
}
