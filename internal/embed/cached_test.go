package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps StaticEmbedder and counts calls reaching it.
type countingEmbedder struct {
	*StaticEmbedder
	embedCalls int
	batchTexts int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls++
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchTexts += len(texts)
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_CacheHit(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	first, err := cached.Embed(ctx, "registration certificate")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "registration certificate")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.embedCalls)
}

func TestCachedEmbedder_BatchPartialCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	_, err := cached.Embed(ctx, "alpha")
	require.NoError(t, err)

	results, err := cached.EmbedBatch(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// alpha was cached, only beta and gamma should reach the inner embedder
	assert.Equal(t, 2, inner.batchTexts)

	direct, err := inner.StaticEmbedder.Embed(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, direct, results[1])
}

func TestCachedEmbedder_EmptyBatch(t *testing.T) {
	ctx := context.Background()
	cached := NewCachedEmbedder(NewStaticEmbedder(), 10)

	results, err := cached.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCachedEmbedder_Eviction(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 2)

	_, err := cached.Embed(ctx, "one")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "two")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "three")
	require.NoError(t, err)

	// "one" was evicted and must be recomputed
	_, err = cached.Embed(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, 4, inner.embedCalls)
}
