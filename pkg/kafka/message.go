package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// EventTypeMatchOutcome is the event_type header of outcome events
const EventTypeMatchOutcome = "transaction.match_outcome"

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Transaction *models.TransactionRecord
}

// ParseTransaction decodes and validates the message value as a transaction record.
func (m *IncomingMessage) ParseTransaction() error {
	var record models.TransactionRecord
	if err := json.Unmarshal(m.Value, &record); err != nil {
		return fmt.Errorf("invalid transaction json: %w", err)
	}
	if record.ID == "" {
		record.ID = m.Key
	}
	if err := utils.Validate(record); err != nil {
		return fmt.Errorf("invalid transaction %q: %w", record.ID, err)
	}
	m.Transaction = &record
	return nil
}

// OutcomeEvent is published for every processed transaction record, matched or not.
type OutcomeEvent struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	TransactionID string          `json:"transaction_id"`
	Kind          string          `json:"kind"`
	RegionCode    string          `json:"region_code"`
	Path          string          `json:"path"` // name or address
	Result        matching.Record `json:"result"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewOutcomeEvent builds the event for record and its flattened result.
func NewOutcomeEvent(record models.TransactionRecord, path string, result matching.Record) *OutcomeEvent {
	return &OutcomeEvent{
		EventID:       uuid.New().String(),
		EventType:     EventTypeMatchOutcome,
		TransactionID: record.ID,
		Kind:          string(record.Kind),
		RegionCode:    record.RegionCode,
		Path:          path,
		Result:        result,
		Timestamp:     time.Now().UTC(),
	}
}
