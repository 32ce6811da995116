// Package kafka streams harvested records to a broker topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/tanahair/water-harvest/internal/domain"
)

// Writer produces harvested records to a Kafka topic.
// It implements pipeline.RecordPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the records topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishDataset serializes every record of the dataset's successful results
// and publishes them in a single WriteMessages call. Records are keyed by
// state code so one state's records stay on one partition.
func (w *Writer) PublishDataset(ctx context.Context, ds domain.Dataset) error {
	var msgs []kafkago.Message
	for _, res := range ds.Successes() {
		for _, rec := range res.Records {
			msg, err := serializeRecord(ds.Domain.Name, res, rec)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d records: %w", len(msgs), err)
	}
	w.logger.Debug("records streamed", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeRecord marshals one record into a Kafka message with provenance
// headers.
func serializeRecord(domainName string, res domain.HarvestResult, rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record for %s: %w", res.Entity.Code, err)
	}
	return kafkago.Message{
		Key:   []byte(res.Entity.Code),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "data_domain", Value: []byte(domainName)},
			{Key: "source", Value: []byte(res.SourceUsed)},
		},
	}, nil
}
