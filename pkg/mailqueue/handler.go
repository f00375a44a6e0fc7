package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Handler processes one kind of email job, identified by Name.
type Handler interface {
	Name() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

// JobHandlerFunc is a typed handler function for a payload of type T.
type JobHandlerFunc[T any] func(ctx context.Context, payload T) error

// NewJobHandler wraps a typed handler function. The job name is derived from
// the payload type, matching what Enqueuer derives at enqueue time.
func NewJobHandler[T any](handler JobHandlerFunc[T]) Handler {
	var payload T
	return &jobHandler[T]{
		name:    jobName(payload),
		handler: handler,
	}
}

type jobHandler[T any] struct {
	name    string
	handler JobHandlerFunc[T]
}

func (h *jobHandler[T]) Name() string {
	return h.name
}

func (h *jobHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", h.name, err)
	}
	return h.handler(ctx, t)
}

// jobName derives a stable job name from the payload type.
func jobName(v any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}
