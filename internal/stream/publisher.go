package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/i474232898/crop-advisor/internal/advisor"
)

// Publisher appends every survey snapshot to a Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
}

// NewPublisher creates a Publisher writing to stream.
func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// Publish serializes the snapshot and adds it to the stream.
func (p *Publisher) Publish(ctx context.Context, snapshot advisor.Snapshot) error {
	values, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.stream, err)
	}
	log.Printf("DEBUG: stream: published snapshot %s for %s to %s", snapshot.ID, snapshot.Coordinates, p.stream)
	return nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// encodeSnapshot builds the stream entry: the snapshot as JSON plus the fields
// consumers filter on.
func encodeSnapshot(snapshot advisor.Snapshot) (map[string]interface{}, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot %s: %w", snapshot.ID, err)
	}
	return map[string]interface{}{
		"id":       snapshot.ID.String(),
		"location": snapshot.Coordinates.Key(),
		"window":   fmt.Sprintf("%04d-%02d", snapshot.Window.Year, int(snapshot.Window.Month)),
		"data":     string(data),
	}, nil
}
