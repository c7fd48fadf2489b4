package realtime

import (
	"log/slog"

	"github.com/dmitrymomot/questnotify/pkg/logger"
	"github.com/dmitrymomot/questnotify/pkg/statemachine"
)

// Phase is the lifecycle phase of the managed connection.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseConnecting Phase = "connecting"
	PhaseOpen       Phase = "open"
	PhaseClosed     Phase = "closed"
)

type trigger string

const (
	triggerConnect    trigger = "connect"
	triggerRetry      trigger = "retry"
	triggerOpened     trigger = "opened"
	triggerDropped    trigger = "dropped"
	triggerHalt       trigger = "halt"
	triggerDisconnect trigger = "disconnect"
)

// Status is a point-in-time view of the connection.
type Status struct {
	Phase       Phase
	CloseCode   int    // last close code, set once the connection has closed
	CloseReason string // last close reason
	Attempts    int    // reconnect attempts since the last successful open
	MaxAttempts int
	Err         error // persistent error, e.g. ErrMaxReconnectAttempts
}

// Connected reports whether the socket is open.
func (s Status) Connected() bool { return s.Phase == PhaseOpen }

func newPhaseMachine(log *slog.Logger) *statemachine.Machine[Phase, trigger] {
	all := []Phase{PhaseIdle, PhaseConnecting, PhaseOpen, PhaseClosed}
	return statemachine.New(PhaseIdle,
		statemachine.WithTransition[Phase, trigger](PhaseIdle, PhaseConnecting, triggerConnect),
		statemachine.WithTransition[Phase, trigger](PhaseClosed, PhaseConnecting, triggerConnect),
		statemachine.WithTransition[Phase, trigger](PhaseClosed, PhaseConnecting, triggerRetry),
		statemachine.WithTransition[Phase, trigger](PhaseConnecting, PhaseOpen, triggerOpened),
		statemachine.WithTransitionsFrom([]Phase{PhaseConnecting, PhaseOpen}, PhaseClosed, triggerDropped),
		statemachine.WithTransition[Phase, trigger](PhaseClosed, PhaseIdle, triggerHalt),
		statemachine.WithTransitionsFrom(all, PhaseIdle, triggerDisconnect),
		statemachine.WithHook[Phase, trigger](func(from, to Phase, ev trigger) {
			log.Debug("connection phase changed",
				slog.String("from", string(from)),
				slog.String("to", string(to)),
				logger.Event(string(ev)),
			)
		}),
	)
}
