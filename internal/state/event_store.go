/*

This file contains the database sink for hub events, plus the queries used
by the read-only web endpoints. Events are append-only; external indexers
consume them from here.

*/

package state

import (
	"encoding/json"
	"fmt"

	"github.com/stellarhub/defihub/internal/types"
)

// EventStore appends hub events to the hub_events table. It implements the
// hub's Emitter interface.
type EventStore struct{}

// NewEventStore returns an event sink bound to the global DB.
func NewEventStore() (*EventStore, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return &EventStore{}, nil
}

// Emit appends one event.
func (e *EventStore) Emit(event types.Event) error {
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("marshal event attributes: %w", err)
	}
	_, err = DB.Exec(`
		INSERT INTO hub_events (event_id, event_type, user_address, attributes, event_timestamp)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ID, string(event.Type), event.User, attrs, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// RecentEvents returns the newest events, capped at limit.
func RecentEvents(limit int) ([]types.Event, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	rows, err := DB.Query(`
		SELECT event_id, event_type, user_address, attributes, event_timestamp
		FROM hub_events ORDER BY event_timestamp DESC, created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		var event types.Event
		var eventType string
		var attrs []byte
		if err := rows.Scan(&event.ID, &eventType, &event.User, &attrs, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Type = types.EventType(eventType)
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &event.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal event attributes: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
