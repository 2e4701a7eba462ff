package event

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]string{"title": "Salary"}
	before := time.Now().UTC()

	ev := NewEvent(EventTypeCreated, EntityTypeTransaction, payload)

	assert.Equal(t, "transaction.created", ev.Type)
	assert.Equal(t, EntityTypeTransaction, ev.Entity)
	assert.Equal(t, payload, ev.Payload)
	assert.False(t, ev.Timestamp.Before(before))
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{"TransactionCreated", TransactionCreated(nil), "transaction.created"},
		{"CategoryCreated", CategoryCreated(nil), "category.created"},
		{"ImportCompleted", ImportCompleted(nil), "import.completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Type)
		})
	}
}

func TestEvent_ToJSON(t *testing.T) {
	ev := ImportCompleted(ImportSummary{Filename: "bank.csv", TransactionCount: 3, CategoriesCreated: 1, RowsSkipped: 2})

	data, err := ev.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "import.completed", decoded["type"])
	assert.Equal(t, "import", decoded["entity"])
	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bank.csv", payload["filename"])
	assert.Equal(t, float64(3), payload["transactionCount"])
	assert.Contains(t, decoded, "timestamp")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingPublisher) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestMultiPublisher_FansOut(t *testing.T) {
	first := &recordingPublisher{}
	second := &recordingPublisher{}

	multi := MultiPublisher{first, nil, second, &NoOpPublisher{}}
	multi.Publish(TransactionCreated("x"))

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.Equal(t, "transaction.created", second.events[0].Type)
}
