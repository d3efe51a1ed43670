package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Document represents an ingested source document
type Document struct {
	ID        uuid.UUID
	FilePath  string
	FileHash  string
	CreatedAt time.Time
}

// Chunk is the unit stored in the vector index: a bounded text segment
// with its embedding and a pointer back to the source document.
type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	ChunkIndex int
	Content    string
	Embedding  *pgvector.Vector
	CreatedAt  time.Time
}

// SearchResult is a chunk returned from similarity search together with
// the path of the document it came from.
type SearchResult struct {
	Chunk
	Source string
}
