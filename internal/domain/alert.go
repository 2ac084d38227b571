package domain

// Severity ranks alerts.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is an ephemeral anomaly notification. ID identifies the condition,
// so a later alert with the same ID supersedes the earlier one.
type Alert struct {
	ID        string   `json:"id"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Timestamp int64    `json:"timestamp"`
	Cleared   bool     `json:"cleared,omitempty"`
}

// EventType names gateway events.
type EventType string

const (
	EventAlert          EventType = "alert"
	EventRouteGenerated EventType = "route_generated"
)

// Event is a notification published to observers.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Alert     *Alert         `json:"alert,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}
