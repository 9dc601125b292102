package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// IncomingMessage is a fetched Kafka message with parsed headers.
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	Record *RecordMessage
}

// RecordMessage is the ingestion payload: one source record to stage for
// linkage.
type RecordMessage struct {
	ID      string            `json:"id"`
	Dataset string            `json:"dataset"`
	Fields  map[string]string `json:"fields"`
}

// ParseRecord decodes the message value as a RecordMessage and validates
// the pieces the pipeline depends on.
func (m *IncomingMessage) ParseRecord() error {
	var record RecordMessage
	if err := json.Unmarshal(m.Value, &record); err != nil {
		return fmt.Errorf("failed to parse record message: %w", err)
	}
	if record.ID == "" {
		return fmt.Errorf("record message has no id")
	}
	if record.Fields == nil {
		record.Fields = map[string]string{}
	}

	m.Record = &record
	return nil
}
