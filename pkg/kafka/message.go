package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

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
	Batch *ExtractBatchMessage
}

// ExtractBatchMessage is a batch of source records published by an upstream
// extractor run
type ExtractBatchMessage struct {
	Source      string                `json:"source"`
	BatchID     string                `json:"batch_id,omitempty"`
	Records     []models.SourceRecord `json:"records"`
	ExtractedAt time.Time             `json:"extracted_at,omitempty"`
}

// ParseBatch parses the message value as an extract batch
func (m *IncomingMessage) ParseBatch() error {
	var batch ExtractBatchMessage
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return err
	}
	m.Batch = &batch
	return nil
}

// GetSource returns the marketplace the batch came from
func (m *IncomingMessage) GetSource() string {
	if m.Batch != nil && m.Batch.Source != "" {
		return m.Batch.Source
	}
	return m.Headers["source"]
}

// GetBatchID returns the extractor's batch identifier, falling back to the
// message key
func (m *IncomingMessage) GetBatchID() string {
	if m.Batch != nil && m.Batch.BatchID != "" {
		return m.Batch.BatchID
	}
	return m.Key
}

// Records returns the batch's source records, stamping the batch-level source
// onto records that omit their own.
func (m *IncomingMessage) Records() []models.SourceRecord {
	if m.Batch == nil {
		return nil
	}
	records := make([]models.SourceRecord, len(m.Batch.Records))
	copy(records, m.Batch.Records)
	for i := range records {
		if records[i].Source == "" {
			records[i].Source = m.Batch.Source
		}
		if records[i].ExtractedAt.IsZero() {
			records[i].ExtractedAt = m.Batch.ExtractedAt
		}
	}
	return records
}
