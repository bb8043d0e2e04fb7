// Package notify publishes per-file conversion progress to optional sinks.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Event kinds
const (
	KindConverted = "converted"
	KindFailed    = "failed"
	KindSummary   = "summary"
)

// Event is one progress message. Summary events only carry the counters.
type Event struct {
	Kind      string    `json:"kind"`
	Source    string    `json:"source,omitempty"`
	Output    string    `json:"output,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Mean      float64   `json:"mean,omitempty"`
	Error     string    `json:"error,omitempty"`
	Converted int       `json:"converted,omitempty"`
	Failed    int       `json:"failed,omitempty"`
	Time      time.Time `json:"time"`
}

// Marshal encodes e as JSON
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier receives progress events
type Notifier interface {
	Notify(ctx context.Context, e Event) error
	Close() error
}

// Multi fans an event out to every notifier it holds
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
