package llm

import (
	"context"
	"fmt"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/core/ratelimit"
)

// EmbeddingClient wraps one shared provider with the run's rate controller.
type EmbeddingClient struct {
	provider core.EmbeddingProvider
	ctrl     *ratelimit.Controller
}

func NewEmbeddingClient(provider core.EmbeddingProvider, ctrl *ratelimit.Controller) *EmbeddingClient {
	return &EmbeddingClient{provider: provider, ctrl: ctrl}
}

// Embed admits the call through the limiter, paces it, retries it on rate
// limits, and rejects responses without a vector.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := ratelimit.Call(ctx, c.ctrl, func(ctx context.Context) ([]float32, error) {
		return c.provider.EmbedText(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", c.provider.ModelName(), err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w (model %s)", core.ErrEmbeddingFailure, c.provider.ModelName())
	}
	return vec, nil
}

var _ core.Embedder = (*EmbeddingClient)(nil)
