package llm

import "context"

// Provider is the contract every vendor adapter implements. Adapters hold
// only their construction parameters and are safe for concurrent use.
type Provider interface {
	// Name returns the registry name, e.g. "openai".
	Name() string

	// Chat performs one round trip and returns the full response.
	Chat(ctx context.Context, messages []Message, cfg Config) (*Response, error)

	// ChatStream starts a streamed completion. The returned Stream is single
	// pass; call ChatStream again to stream again.
	ChatStream(ctx context.Context, messages []Message, cfg Config) (Stream, error)
}

// Iterator provides pull-based sequential access to a stream of values.
// The consumer calls Next() to retrieve values one at a time.
// Close must be called when done to release resources.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator. Stopping early
	// is not an error.
	Close() error
}

// Stream is an iterator of chat chunks.
type Stream = Iterator[StreamChunk]

// Factory builds a provider from an API key and an optional base URL.
type Factory func(apiKey, baseURL string) (Provider, error)
