package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Job handles one message type.
type Job interface {
	// Type is the message type the job consumes.
	Type() string

	// Handle processes a JSON payload. Wrap ErrPermanent to skip retries.
	Handle(ctx context.Context, payload json.RawMessage) error
}

// ErrPermanent marks a failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err with ErrPermanent.
func Permanent(err error) error {
	return fmt.Errorf("%w: %v", ErrPermanent, err)
}

// Decode unmarshals a job payload.
func Decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, Permanent(fmt.Errorf("decode payload: %w", err))
	}
	return v, nil
}
