// Package intent is the boundary to the external text-understanding
// collaborator. The core hands it the device ID, the bounded recent
// conversation and the raw message, and checks only the shape of what
// comes back.
package intent

import (
	"context"
	"errors"
	"fmt"

	"identity/internal/session"
)

// Result is the structured intent returned by the collaborator.
type Result struct {
	Kind          string   `json:"intent"`
	Entities      []string `json:"entities,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Confidence    float64  `json:"confidence"`
	Clarification string   `json:"clarification,omitempty"`
}

var (
	ErrMalformedResult = errors.New("malformed intent result")
	ErrUnavailable     = errors.New("intent collaborator not configured")
)

// Validate checks the result's shape: a non-empty kind and a confidence
// inside [0,1]. The collaborator's reasoning is opaque and not judged.
func (r Result) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("%w: empty intent kind", ErrMalformedResult)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformedResult, r.Confidence)
	}
	return nil
}

// Classifier is implemented by anything that can turn a message plus its
// conversational context into a structured intent.
type Classifier interface {
	Classify(ctx context.Context, deviceID string, history []session.Turn, text string) (Result, error)
}
