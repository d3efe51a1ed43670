package documents

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/docuchat/cli/internal/db"
)

// Embedder converts chunk text into a fixed-dimension vector
type Embedder interface {
	Embed(ctx context.Context, text string) (*pgvector.Vector, error)
}

// Index is the slice of the vector store the pipeline writes to
type Index interface {
	GetDocumentByHash(ctx context.Context, hash string) (*db.Document, error)
	CreateDocument(ctx context.Context, filePath, fileHash string) (*db.Document, error)
	InsertChunksBatch(ctx context.Context, chunks []*db.Chunk) error
}

// Pipeline orchestrates load -> chunk -> embed -> upsert for a batch of
// documents. A failure embedding or storing any chunk aborts the call;
// documents committed earlier in the same batch are not rolled back, so
// re-running the batch is the recovery path (unchanged documents are
// skipped by hash).
type Pipeline struct {
	index   Index
	embed   Embedder
	parser  *PDFParser
	chunker *Chunker
	logger  *slog.Logger

	mu sync.Mutex // at most one ingestion call at a time
}

// NewPipeline creates an ingestion pipeline
func NewPipeline(index Index, embed Embedder, chunker *Chunker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		index:   index,
		embed:   embed,
		parser:  NewPDFParser(),
		chunker: chunker,
		logger:  logger,
	}
}

// IngestDir ingests every PDF in a directory, for scheduled batch runs
func (p *Pipeline) IngestDir(ctx context.Context, dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return fmt.Errorf("failed to list directory: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no PDF files found in %s", dir)
	}
	return p.Ingest(ctx, matches)
}

// Ingest ingests the given PDF files into the vector index
func (p *Pipeline) Ingest(ctx context.Context, paths []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, path := range paths {
		if err := p.ingestFile(ctx, path); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
	}
	return nil
}

// IngestBytes ingests a single uploaded document from memory
func (p *Pipeline) IngestBytes(ctx context.Context, data []byte, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	existing, err := p.index.GetDocumentByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil {
		p.logger.Debug("document already ingested", "name", name)
		return nil
	}

	parsed, err := p.parser.ParseBytes(data, name)
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	return p.store(ctx, parsed, name, hash)
}

// ingestFile ingests one file, skipping it when its hash is already indexed
func (p *Pipeline) ingestFile(ctx context.Context, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	hash, err := computeFileHash(path)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	existing, err := p.index.GetDocumentByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil {
		p.logger.Debug("document already ingested", "path", path)
		return nil
	}

	parsed, err := p.parser.Parse(path)
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	return p.store(ctx, parsed, path, hash)
}

// store chunks the parsed text, embeds every chunk and upserts the batch.
// The document row carries the dedupe hash, so it must not exist until
// every chunk has an embedding; a run that fails mid-embed leaves nothing
// behind and the retry ingests the file from scratch.
func (p *Pipeline) store(ctx context.Context, parsed *ParsedDocument, path, hash string) error {
	chunks := p.chunker.Split(parsed.Text)
	if len(chunks) == 0 {
		p.logger.Warn("document has no extractable text", "path", path)
		return nil
	}

	vectors := make([]*pgvector.Vector, 0, len(chunks))
	for i, chunkText := range chunks {
		embedding, err := p.embed.Embed(ctx, chunkText)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		vectors = append(vectors, embedding)
	}

	doc, err := p.index.CreateDocument(ctx, path, hash)
	if err != nil {
		return fmt.Errorf("failed to create document record: %w", err)
	}

	chunkData := make([]*db.Chunk, 0, len(chunks))
	for i, chunkText := range chunks {
		chunkData = append(chunkData, &db.Chunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    chunkText,
			Embedding:  vectors[i],
		})
	}

	if err := p.index.InsertChunksBatch(ctx, chunkData); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	p.logger.Info("ingested document", "path", path, "chunks", len(chunkData))
	return nil
}

// computeFileHash computes the SHA256 hash of a file
func computeFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
