package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketListClone(t *testing.T) {
	t.Run("copies the packets and their buffers", func(t *testing.T) {
		original := &PacketList{Packets: []Packet{
			{Timestamp: 42, Data: []byte{0x90, 60, 100}},
			{Timestamp: 43, Data: []byte{0x80, 60, 0}},
		}}

		clone := original.Clone()

		require.NotSame(t, original, clone)
		assert.Equal(t, original, clone)

		original.Packets[0].Data[0] = 0xFF
		assert.Equal(t, byte(0x90), clone.Packets[0].Data[0])
	})

	t.Run("clones nil as nil", func(t *testing.T) {
		var pl *PacketList

		assert.Nil(t, pl.Clone())
	})
}
