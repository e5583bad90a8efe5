package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Unmarshal(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventJobFailed, func() Event { return &JobFailed{} })

	raw := RawEvent{
		EventType: EventJobFailed,
		Payload:   `{"type":"job.failed","entity_type":"job","entity_id":"j1","occurred_at":"2024-01-01T00:00:00Z","run_id":"r1","path":"/in/x.mp4","stage":"resolve","reason":"no source has this title"}`,
	}

	event, err := registry.Unmarshal(raw)
	require.NoError(t, err)

	failed, ok := event.(*JobFailed)
	require.True(t, ok)
	assert.Equal(t, "j1", failed.EntityID())
	assert.Equal(t, "resolve", failed.Stage)
	assert.Equal(t, "/in/x.mp4", failed.Path)
}

func TestRegistry_UnmarshalUnknownType(t *testing.T) {
	_, err := NewRegistry().Unmarshal(RawEvent{EventType: "unknown.event", Payload: `{}`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestRegistry_UnmarshalInvalidJSON(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventJobStarted, func() Event { return &JobStarted{} })

	_, err := registry.Unmarshal(RawEvent{EventType: EventJobStarted, Payload: `{not json`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal event payload")
}

func TestDefaultRegistry_RoundTripsAllTypes(t *testing.T) {
	registry := DefaultRegistry()

	events := []Event{
		&BatchStarted{BaseEvent: NewBaseEvent(EventBatchStarted, EntityBatch, "r1"), Files: 3, Concurrency: 2},
		&BatchFinished{BaseEvent: NewBaseEvent(EventBatchFinished, EntityBatch, "r1"), Total: 3, Succeeded: 2, Failed: 1},
		&JobStarted{BaseEvent: NewBaseEvent(EventJobStarted, EntityJob, "j1"), RunID: "r1", Path: "/a.mp4"},
		&JobCompleted{BaseEvent: NewBaseEvent(EventJobCompleted, EntityJob, "j1"), Number: "ABP-001", Source: "javbus"},
		&JobFailed{BaseEvent: NewBaseEvent(EventJobFailed, EntityJob, "j2"), Stage: "parse"},
		&JobSkipped{BaseEvent: NewBaseEvent(EventJobSkipped, EntityJob, "j3"), Reason: "known failed"},
		&JobRetried{BaseEvent: NewBaseEvent(EventJobRetried, EntityJob, "j2"), From: "failed"},
	}

	for _, e := range events {
		t.Run(e.EventType(), func(t *testing.T) {
			payload, err := json.Marshal(e)
			require.NoError(t, err)

			got, err := registry.Unmarshal(RawEvent{EventType: e.EventType(), Payload: string(payload)})
			require.NoError(t, err)
			assert.Equal(t, e.EntityID(), got.EntityID())
			assert.Equal(t, e.EventType(), got.EventType())
		})
	}
}
