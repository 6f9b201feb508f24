package core

import "context"

// EmbeddingProvider performs a single outbound embedding call.
// Failures should surface as *APIError so the retry policy can classify them.
type EmbeddingProvider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// Embedder is the rate-limited, retrying client the pipeline talks to.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
