package ingestion_engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/models"
)

// EmbeddingGenerator wraps an embedding provider with the invariants the
// vector index depends on: input truncation, a minimum-length guard, and
// a hard dimensionality check.
type EmbeddingGenerator struct {
	provider core.EmbeddingProvider
	dim      int
	maxChars int
	minChars int
}

func NewEmbeddingGenerator(provider core.EmbeddingProvider, dim, maxChars, minChars int) *EmbeddingGenerator {
	return &EmbeddingGenerator{
		provider: provider,
		dim:      dim,
		maxChars: maxChars,
		minChars: minChars,
	}
}

// Embed converts text into a vector of exactly the configured dimension.
// Input beyond the character budget is truncated before the call; a
// returned vector of any other length is an error, never padded.
func (g *EmbeddingGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < g.minChars {
		return nil, fmt.Errorf("%w: %d chars, need %d", models.ErrTextTooShort, len(trimmed), g.minChars)
	}
	if runes := []rune(trimmed); len(runes) > g.maxChars {
		trimmed = string(runes[:g.maxChars])
	}

	vecs, err := g.provider.EmbedTexts(ctx, []string{trimmed})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed: got %d vectors for one input", len(vecs))
	}
	if len(vecs[0]) != g.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", models.ErrEmbeddingDimension, len(vecs[0]), g.dim)
	}
	return vecs[0], nil
}
