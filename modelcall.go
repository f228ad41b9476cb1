package thesisaf

import "context"

// ModelCaller is the model-call collaborator: one prompt in, raw response
// text out. The response is expected to be JSON, possibly wrapped in prose
// or fencing that ParseRecordJSON tolerates. Implementations return a
// RetryableError for transient failures worth retrying.
type ModelCaller interface {
	Call(ctx context.Context, prompt string, opts *CallOptions) (string, error)

	// Close releases any resources held by the caller (connections, sessions).
	Close() error
}

// CallOptions configures one model call.
type CallOptions struct {
	// Model is the provider model identifier.
	Model string

	// MaxTokens is the max output tokens (0 = provider default).
	MaxTokens int

	// Temperature is the sampling temperature; extraction wants it low.
	Temperature float64
}
