package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RunProgressInfo contains progress information for a simulation run
type RunProgressInfo struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`

	// Phase identifies the current stage of the run ("drawing", "persisting")
	Phase string `json:"phase,omitempty"`

	// Details contains arbitrary key-value metrics for the current phase,
	// such as the number of records being persisted
	Details map[string]interface{} `json:"details,omitempty"`
}

// RunStatusData contains data for simulation run lifecycle events
type RunStatusData struct {
	RunID     string                 `json:"run_id"`
	Status    string                 `json:"status"` // "queued", "started", "progress", "completed", "failed", "cancelled"
	Draws     int                    `json:"draws"`
	Progress  *RunProgressInfo       `json:"progress,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Duration  float64                `json:"duration,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventType returns the event type for RunStatusData
// Note: The actual event type is determined by the Status field
func (d *RunStatusData) EventType() EventType {
	switch d.Status {
	case "queued":
		return RunQueued
	case "started":
		return RunStarted
	case "progress":
		return RunProgress
	case "completed":
		return RunCompleted
	case "failed":
		return RunFailed
	case "cancelled":
		return RunCancelled
	default:
		return RunQueued
	}
}

// DatasetImportedData contains data for DatasetImported events
type DatasetImportedData struct {
	Source   string `json:"source"` // "pnl", "cohorts"
	Rows     int    `json:"rows"`
	Warnings int    `json:"warnings"`
}

// EventType returns the event type for DatasetImportedData
func (d *DatasetImportedData) EventType() EventType {
	return DatasetImported
}

// DatasetClearedData contains data for DatasetCleared events
type DatasetClearedData struct {
	Source string `json:"source"`
}

// EventType returns the event type for DatasetClearedData
func (d *DatasetClearedData) EventType() EventType {
	return DatasetCleared
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// EventWithData represents an event with typed data
type EventWithData struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// MarshalJSON customizes JSON serialization for EventWithData
func (e *EventWithData) MarshalJSON() ([]byte, error) {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	// Marshal the data separately
	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for EventWithData
func (e *EventWithData) UnmarshalJSON(data []byte) error {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	// Unmarshal data based on event type
	if len(aux.Data) > 0 {
		var eventData EventData
		switch aux.Type {
		case RunQueued, RunStarted, RunProgress, RunCompleted, RunFailed, RunCancelled:
			eventData = &RunStatusData{}
		case DatasetImported:
			eventData = &DatasetImportedData{}
		case DatasetCleared:
			eventData = &DatasetClearedData{}
		case ErrorOccurred:
			eventData = &ErrorEventData{}
		default:
			// For unknown types, use raw map
			var rawData map[string]interface{}
			if err := json.Unmarshal(aux.Data, &rawData); err != nil {
				return err
			}
			e.Data = &GenericEventData{Type: aux.Type, Data: rawData}
			return nil
		}

		if err := json.Unmarshal(aux.Data, eventData); err != nil {
			return err
		}
		e.Data = eventData
	}

	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
