package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeCompleted EventType = "completed"
)

// EntityType represents the kind of entity the event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeCategory    EntityType = "category"
	EntityTypeImport      EntityType = "import"
)

// Event is the message fanned out to websocket clients and the broker.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`
	Entity    EntityType  `json:"entity"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

// CategoryCreated creates a category.created event
func CategoryCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeCategory, payload)
}

// ImportCompleted creates an import.completed event
func ImportCompleted(payload interface{}) Event {
	return NewEvent(EventTypeCompleted, EntityTypeImport, payload)
}

// ImportSummary is the payload of an import.completed event
type ImportSummary struct {
	Filename          string `json:"filename"`
	TransactionCount  int    `json:"transactionCount"`
	CategoriesCreated int    `json:"categoriesCreated"`
	RowsSkipped       int    `json:"rowsSkipped"`
}
