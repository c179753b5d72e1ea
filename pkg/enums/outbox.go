package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCraft OutboxAggregateType = "craft"
	AggregateStock OutboxAggregateType = "stock_entry"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCraft,
	AggregateStock,
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
	EventCraftCreated   OutboxEventType = "craft_created"
	EventCraftStarted   OutboxEventType = "craft_started"
	EventCraftCompleted OutboxEventType = "craft_completed"
	EventCraftCancelled OutboxEventType = "craft_cancelled"
	EventStockAdjusted  OutboxEventType = "stock_adjusted"
	EventStockTransfer  OutboxEventType = "stock_transferred"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCraftCreated,
	EventCraftStarted,
	EventCraftCompleted,
	EventCraftCancelled,
	EventStockAdjusted,
	EventStockTransfer,
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
