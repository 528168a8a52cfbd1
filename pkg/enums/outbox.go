package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateTable       OutboxAggregateType = "table"
	AggregateSession     OutboxAggregateType = "session"
	AggregateReservation OutboxAggregateType = "reservation"
	AggregateMergeGroup  OutboxAggregateType = "merge_group"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateTable,
	AggregateSession,
	AggregateReservation,
	AggregateMergeGroup,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventTablesMerged      OutboxEventType = "tables_merged"
	EventTableUnmerged     OutboxEventType = "table_unmerged"
	EventSessionOpened     OutboxEventType = "session_opened"
	EventSessionClosed     OutboxEventType = "session_closed"
	EventReservationJoined OutboxEventType = "reservation_joined"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTablesMerged,
	EventTableUnmerged,
	EventSessionOpened,
	EventSessionClosed,
	EventReservationJoined,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
