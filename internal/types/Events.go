/*

This file contains the structured event emitted by every mutating hub
operation. Events are consumed by external indexers, not by the hub itself.

*/

package types

// EventType names a hub operation for indexing.
type EventType string

const (
	EventSwap           EventType = "swap"
	EventSupply         EventType = "supply"
	EventBorrow         EventType = "borrow"
	EventStake          EventType = "stake"
	EventUnstake        EventType = "unstake"
	EventRateUpdate     EventType = "rate_update"
	EventEmergencyPrice EventType = "emergency_price"
	EventInitialized    EventType = "initialized"
)

// Event carries the operation name, the acting user, and the relevant
// amounts as string attributes.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	User       string            `json:"user"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  int64             `json:"timestamp"` // Unix seconds
}
