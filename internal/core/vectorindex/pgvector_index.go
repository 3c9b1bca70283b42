package vectorindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/models"
)

// PgvectorIndex implements core.VectorIndex on a pgvector table, for
// deployments that keep everything inside Postgres. The namespace is a
// plain column; (namespace, doc_id) is the primary key, so re-upserts
// overwrite via ON CONFLICT.
type PgvectorIndex struct {
	db        *sql.DB
	dimension int
}

func NewPgvectorIndex(db *sql.DB, dimension int) *PgvectorIndex {
	return &PgvectorIndex{db: db, dimension: dimension}
}

func (p *PgvectorIndex) Upsert(ctx context.Context, docID, filename string, vector []float32, text string) (string, error) {
	ns := Namespace(docID, filename)

	const q = `
		INSERT INTO vector_entries (namespace, doc_id, filename, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace, doc_id)
		DO UPDATE SET filename = $3, content = $4, embedding = $5
	`
	if _, err := p.db.ExecContext(ctx, q, ns, docID, filename, text, pgvector.NewVector(vector)); err != nil {
		return "", fmt.Errorf("pgvector upsert: %w", err)
	}
	return ns, nil
}

func (p *PgvectorIndex) Fetch(ctx context.Context, docID, namespace string) (*models.VectorEntry, error) {
	const q = `
		SELECT doc_id, filename, content, embedding
		FROM vector_entries
		WHERE namespace = $1 AND doc_id = $2
	`
	var (
		entry models.VectorEntry
		emb   pgvector.Vector
	)
	err := p.db.QueryRowContext(ctx, q, namespace, docID).Scan(
		&entry.ID, &entry.Filename, &entry.Text, &emb,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s in namespace %s: %w", docID, namespace, models.ErrVectorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pgvector fetch: %w", err)
	}
	entry.Vector = emb.Slice()
	return &entry, nil
}

func (p *PgvectorIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	const q = `DELETE FROM vector_entries WHERE namespace = $1`
	if _, err := p.db.ExecContext(ctx, q, namespace); err != nil {
		return fmt.Errorf("pgvector delete namespace: %w", err)
	}
	return nil
}

var _ core.VectorIndex = (*PgvectorIndex)(nil)
