package session

import "github.com/phntmzn/midx/sdk/contracts"

// handlerBox wraps the registered inbound handler so the atomic snapshot
// always holds the same concrete type, registered or not.
type handlerBox struct {
	fn contracts.InboundHandler
}

// deliver is the delivery callback registered with the input port. It
// runs on a thread the subsystem owns, so it takes no locks: load the
// handler snapshot, apply the filter, invoke synchronously. Packets
// arriving with no handler registered are dropped.
func (m *Manager) deliver(packets *contracts.PacketList, refCon any) {
	box, _ := m.handler.Load().(handlerBox)
	if box.fn == nil {
		m.logger.Debug("inbound packets dropped: no handler registered")
		return
	}

	if m.filter != nil {
		packets = filterPackets(packets, m.filter.Commands)
		if packets == nil {
			return
		}
	}

	box.fn(packets, refCon)
}

// filterPackets keeps the packets whose command nibble is in allowed and
// returns nil when none remain.
func filterPackets(packets *contracts.PacketList, allowed []contracts.Command) *contracts.PacketList {
	if packets == nil {
		return nil
	}
	kept := make([]contracts.Packet, 0, len(packets.Packets))
	for _, p := range packets.Packets {
		if len(p.Data) == 0 {
			continue
		}
		if isCommandAllowed(p.Data[0]&0xF0, allowed) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &contracts.PacketList{Packets: kept}
}

// isCommandAllowed verifies if a MIDI command is allowed based on the
// event filter configuration.
func isCommandAllowed(command byte, allowed []contracts.Command) bool {
	for _, allowedCommand := range allowed {
		if command == byte(allowedCommand) {
			return true
		}
	}
	return false
}
