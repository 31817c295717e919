package services

import "errors"

// Error kinds returned by the engine. Validation and authorization errors go
// back to the caller synchronously and are never retried; delivery failures
// are recorded on the entity and surfaced as per-item failure counts.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrAlreadyDecided      = errors.New("already decided")
	ErrAlreadyAcknowledged = errors.New("already acknowledged")
	ErrUnknownStage        = errors.New("unknown stage")
	ErrUnsupportedAction   = errors.New("unsupported action type")
	ErrDeliveryFailed      = errors.New("delivery failed")
)

// JobResult is what a periodic pass reports back to its trigger. Failures
// are logged and counted, never fatal to the batch.
type JobResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}
