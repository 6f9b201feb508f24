package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/markdave123-py/policyrag/internal/core"
)

type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is empty", core.ErrConfiguration)
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-embedding-001"
	}
	return &GeminiEmbedder{client: cl, modelName: modelName}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiEmbedder) ModelName() string { return g.modelName }

// EmbedText embeds a single chunk. Google API errors are translated into
// *core.APIError so rate limits are classified like any other provider.
func (g *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	em := g.client.EmbeddingModel(g.modelName)
	em.TaskType = genai.TaskTypeRetrievalDocument

	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fromGoogleError(err)
	}
	if resp == nil || resp.Embedding == nil {
		return nil, nil
	}
	return resp.Embedding.Values, nil
}

func fromGoogleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &core.APIError{
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			RetryAfter: parseRetryAfter(gerr.Header, time.Now()),
		}
	}
	return fmt.Errorf("gemini embed: %w", err)
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
