package contracts

// Command identifies a MIDI channel-voice command by its status nibble.
type Command byte

const (
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff Command = 0x80
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn Command = 0x90
	// ControlChange is the MIDI command for a Control Change event (0xB0).
	ControlChange Command = 0xB0
	// ProgramChange is the MIDI command for a Program Change event (0xC0).
	ProgramChange Command = 0xC0
)

// Packet is one timestamped MIDI message as it crossed the device boundary.
type Packet struct {
	Timestamp uint64 // Timestamp indicates the time the message was received, in nanoseconds.
	Data      []byte // Data holds the raw message bytes, status byte first.
}

// PacketList groups the packets delivered together in one callback from the
// device subsystem. The list and its packet data are only valid for the
// duration of the handler invocation; use Clone to retain them.
type PacketList struct {
	Packets []Packet
}

// Clone returns a deep copy of the packet list whose buffers remain valid
// after the delivery callback returns.
func (pl *PacketList) Clone() *PacketList {
	if pl == nil {
		return nil
	}
	out := &PacketList{Packets: make([]Packet, len(pl.Packets))}
	for i, p := range pl.Packets {
		data := make([]byte, len(p.Data))
		copy(data, p.Data)
		out.Packets[i] = Packet{Timestamp: p.Timestamp, Data: data}
	}
	return out
}

// InboundHandler consumes incoming MIDI packet lists. It is invoked on a
// thread owned by the device subsystem, so implementations must not block,
// must not start or stop the session from inside the handler, and must not
// retain the list beyond the call without cloning it. Sending through the
// session is allowed. refCon is an opaque per-delivery value supplied by
// the subsystem, typically identifying the source.
type InboundHandler func(packets *PacketList, refCon any)

// Session defines the lifecycle and messaging surface of a MIDI session.
type Session interface {
	// Start acquires the device client and its input and output ports.
	// Starting an already started session is a no-op.
	Start() error
	// Stop releases all device resources and clears the registered inbound
	// handler. Stopping an already stopped session is a no-op. The session
	// may be started again afterwards.
	Stop()
	// Started reports whether the session currently holds device resources.
	Started() bool

	// SendNoteOn transmits a Note On message. Channel is 1-16.
	SendNoteOn(note, velocity, channel uint8) error
	// SendNoteOff transmits a Note Off message. Channel is 1-16.
	SendNoteOff(note, channel uint8) error
	// SendControlChange transmits a Control Change message. Channel is 1-16.
	SendControlChange(controller, value, channel uint8) error
	// SendProgramChange transmits a Program Change message. Channel is 1-16.
	SendProgramChange(program, channel uint8) error

	// RegisterInboundHandler installs the consumer for incoming packets,
	// replacing any previous registration. It may be called before Start;
	// the handler takes effect from the next delivery. Stop clears it.
	RegisterInboundHandler(h InboundHandler)
}
