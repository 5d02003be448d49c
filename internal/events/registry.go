package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// session
	"session.started":   {},
	"session.completed": {},
	"session.failed":    {},
	"session.restored":  {},

	// round
	"round.started":   {},
	"round.completed": {},
	"round.failed":    {},
	"round.observed":  {},

	// traps and secrets
	"trap.failed":       {},
	"canvas.built":      {},
	"secrets.refreshed": {},

	// executor
	"executor.connected":    {},
	"executor.disconnected": {},
	"executor.error":        {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
