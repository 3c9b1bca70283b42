package vectorindex

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/models"
)

// PineconeIndex implements core.VectorIndex against a Pinecone
// serverless index.
type PineconeIndex struct {
	client    *PineconeClient
	indexName string
	host      string
	dimension int
	logger    *zap.Logger
}

// NewPineconeIndex resolves (or creates) the index once per process.
// Index setup is a startup concern: any failure here is fatal to the
// caller, not retried per request.
func NewPineconeIndex(ctx context.Context, client *PineconeClient, indexName, host string, dimension int, logger *zap.Logger) (*PineconeIndex, error) {
	if client == nil {
		return nil, fmt.Errorf("pinecone client required")
	}

	desc, err := client.DescribeIndex(ctx, indexName)
	if err != nil {
		// Assume not-found and try to create; creation errors are final.
		desc, err = client.CreateServerlessIndex(ctx, indexName, dimension, "cosine")
		if err != nil {
			return nil, fmt.Errorf("pinecone index %q unavailable: %w", indexName, err)
		}
		logger.Info("created pinecone index",
			zap.String("index", indexName), zap.Int("dimension", dimension))
	}

	if desc.Dimension != 0 && desc.Dimension != dimension {
		return nil, fmt.Errorf("pinecone index %q has dimension %d, want %d", indexName, desc.Dimension, dimension)
	}
	if host == "" {
		host = desc.Host
	}
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("pinecone index %q returned no host", indexName)
	}

	return &PineconeIndex{
		client:    client,
		indexName: indexName,
		host:      host,
		dimension: dimension,
		logger:    logger,
	}, nil
}

func (p *PineconeIndex) Upsert(ctx context.Context, docID, filename string, vector []float32, text string) (string, error) {
	ns := Namespace(docID, filename)

	count, err := p.client.Upsert(ctx, p.host, ns, []pineconeVector{{
		ID:     docID,
		Values: vector,
		Metadata: map[string]any{
			"filename": filename,
			"text":     text,
		},
	}})
	if err != nil {
		return "", fmt.Errorf("pinecone upsert: %w", err)
	}
	if count == 0 {
		p.logger.Warn("pinecone reported zero upserted vectors", zap.String("namespace", ns))
	}
	return ns, nil
}

func (p *PineconeIndex) Fetch(ctx context.Context, docID, namespace string) (*models.VectorEntry, error) {
	vectors, err := p.client.Fetch(ctx, p.host, namespace, []string{docID})
	if err != nil {
		return nil, fmt.Errorf("pinecone fetch: %w", err)
	}
	v, ok := vectors[docID]
	if !ok {
		return nil, fmt.Errorf("document %s in namespace %s: %w", docID, namespace, models.ErrVectorNotFound)
	}

	entry := &models.VectorEntry{ID: v.ID, Vector: v.Values}
	if s, ok := v.Metadata["filename"].(string); ok {
		entry.Filename = s
	}
	if s, ok := v.Metadata["text"].(string); ok {
		entry.Text = s
	}
	return entry, nil
}

func (p *PineconeIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := p.client.DeleteAll(ctx, p.host, namespace); err != nil {
		return fmt.Errorf("pinecone delete namespace: %w", err)
	}
	return nil
}

var _ core.VectorIndex = (*PineconeIndex)(nil)
