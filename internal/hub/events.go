/*

This file contains event emission. Every mutating hub operation publishes a
structured event for external indexers. The hub core only depends on the
Emitter interface; cmd/hub decides whether events land in the log, the
database, or both.

*/

package hub

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stellarhub/defihub/internal/logger"
	"github.com/stellarhub/defihub/internal/types"
)

// Emitter publishes hub events. A failed emission aborts the enclosing
// operation like any other state write; the host rolls back atomically.
type Emitter interface {
	Emit(event types.Event) error
}

// LogEmitter writes events to the structured log. Used when no database
// sink is configured, and as the default in tests.
type LogEmitter struct {
	log zerolog.Logger
}

// NewLogEmitter returns an emitter backed by the component logger.
func NewLogEmitter() *LogEmitter {
	return &LogEmitter{log: logger.GetForComponent("events")}
}

func (e *LogEmitter) Emit(event types.Event) error {
	entry := e.log.Info().
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Str("user", event.User).
		Int64("timestamp", event.Timestamp)
	for key, value := range event.Attributes {
		entry = entry.Str(key, value)
	}
	entry.Msg("hub event")
	return nil
}

// MultiEmitter fans an event out to several sinks in order.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(event types.Event) error {
	for _, emitter := range m {
		if err := emitter.Emit(event); err != nil {
			return err
		}
	}
	return nil
}

// newEvent stamps a fresh event with a unique ID.
func newEvent(eventType types.EventType, user string, now int64, attrs map[string]string) types.Event {
	return types.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		User:       user,
		Attributes: attrs,
		Timestamp:  now,
	}
}
