package main

import (
	"fmt"
	"time"

	"github.com/phntmzn/midx/internal/logger"
	"github.com/phntmzn/midx/sdk/contracts"
	"github.com/phntmzn/midx/sdk/message"
	"github.com/phntmzn/midx/sdk/midx"
)

func main() {
	log := logger.NewZapLogger()

	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithEventFilter(contracts.EventFilter{
			Commands: []contracts.Command{contracts.NoteOn, contracts.NoteOff},
		}),
	}

	session, err := midx.NewSession(opts...)
	if err != nil {
		log.Warn("No platform MIDI subsystem, falling back to the loopback cable",
			log.Field().Error("error", err))
		session, err = midx.NewSession(append(opts,
			contracts.WithDeviceSubsystem(midx.NewLoopbackSubsystem(log)))...)
		if err != nil {
			log.Error("Failed to initialize the MIDI session", log.Field().Error("error", err))
			return
		}
	}

	session.RegisterInboundHandler(func(packets *contracts.PacketList, _ any) {
		for _, packet := range packets.Packets {
			event, err := message.Parse(packet.Data)
			if err != nil {
				continue
			}
			log.Info("MIDI event",
				log.Field().Uint64("timestamp", packet.Timestamp),
				log.Field().Int("command", int(event.Command)),
				log.Field().Int("channel", int(event.Channel)),
				log.Field().Int("data1", int(event.Data1)),
				log.Field().Int("data2", int(event.Data2)),
			)
		}
	})

	if err = session.Start(); err != nil {
		log.Error("Failed to start the MIDI session", log.Field().Error("error", err))
		return
	}
	defer session.Stop()

	fmt.Println("Session started, playing a short arpeggio...")
	for _, note := range []uint8{60, 64, 67, 72} {
		if err = session.SendNoteOn(note, 100, 1); err != nil {
			log.Error("Failed to send note on", log.Field().Error("error", err))
			return
		}
		time.Sleep(150 * time.Millisecond)
		if err = session.SendNoteOff(note, 1); err != nil {
			log.Error("Failed to send note off", log.Field().Error("error", err))
			return
		}
	}

	fmt.Println("Listening for MIDI events... Press Ctrl+C to exit.")
	select {} // Run indefinitely
}
