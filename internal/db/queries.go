package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// GetDocumentByHash retrieves a document by its file hash.
// Returns (nil, nil) when no document matches.
func (db *DB) GetDocumentByHash(ctx context.Context, hash string) (*Document, error) {
	var doc Document
	err := db.pool.QueryRow(ctx,
		`SELECT id, file_path, file_hash, created_at
		 FROM documents WHERE file_hash = $1`,
		hash,
	).Scan(&doc.ID, &doc.FilePath, &doc.FileHash, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document by hash: %w", err)
	}
	return &doc, nil
}

// CreateDocument creates a new document record
func (db *DB) CreateDocument(ctx context.Context, filePath, fileHash string) (*Document, error) {
	var doc Document
	err := db.pool.QueryRow(ctx,
		`INSERT INTO documents (file_path, file_hash)
		 VALUES ($1, $2)
		 RETURNING id, file_path, file_hash, created_at`,
		filePath, fileHash,
	).Scan(&doc.ID, &doc.FilePath, &doc.FileHash, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return &doc, nil
}

// InsertChunksBatch inserts chunks with embeddings in a single batch
func (db *DB) InsertChunksBatch(ctx context.Context, chunks []*Chunk) error {
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(
			`INSERT INTO chunks (id, document_id, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Content, chunk.Embedding,
		)
	}
	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	return nil
}

// SearchSimilarChunks returns the limit nearest chunks by cosine distance,
// including their embeddings so callers can re-rank the candidate set.
func (db *DB) SearchSimilarChunks(ctx context.Context, embedding *pgvector.Vector, limit int) ([]*SearchResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.id, c.document_id, c.chunk_index, c.content, c.embedding, c.created_at, d.file_path
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE c.embedding IS NOT NULL
		 ORDER BY c.embedding <=> $1
		 LIMIT $2`,
		embedding, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.ID, &r.DocumentID, &r.ChunkIndex,
			&r.Content, &r.Embedding, &r.CreatedAt, &r.Source,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// CountChunks returns the number of indexed chunks
func (db *DB) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// GetAllDocuments retrieves all documents, newest first
func (db *DB) GetAllDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, file_path, file_hash, created_at
		 FROM documents ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.FilePath, &doc.FileHash, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// DeleteDocument deletes a document and its chunks (ON DELETE CASCADE)
func (db *DB) DeleteDocument(ctx context.Context, docID uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, docID)
	return err
}
