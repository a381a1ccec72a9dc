package device

import (
	"github.com/rs/zerolog"

	"nnrunner/internal/offload"
)

// LogPublisher writes controller events to a zerolog logger.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(e offload.Event) {
	var ev *zerolog.Event
	switch e.Name {
	case offload.EventLayerDone, offload.EventSessionStart:
		ev = p.Logger.Debug()
	case offload.EventSessionFailed, offload.EventSessionBusy:
		ev = p.Logger.Warn()
	default:
		ev = p.Logger.Info()
	}
	ev.Uint64("session", e.Session).Fields(e.Fields).Msg(e.Name)
}
