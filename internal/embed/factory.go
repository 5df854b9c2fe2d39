package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NewEmbedder builds the embedder named by provider, wrapped with an LRU
// cache. Supported providers: "ollama" (default) and "static".
func NewEmbedder(ctx context.Context, provider string, cfg OllamaConfig, cacheSize int) (Embedder, error) {
	var inner Embedder
	var err error

	switch strings.ToLower(provider) {
	case "", "ollama":
		inner, err = NewOllamaEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
	case "static":
		inner = NewStaticEmbedder()
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}

	slog.Debug("embedder_created",
		slog.String("provider", provider),
		slog.String("model", inner.ModelName()),
		slog.Int("dimensions", inner.Dimensions()))

	return NewCachedEmbedder(inner, cacheSize), nil
}
