package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ParsedDocument contains the plain text extracted from a document and
// the name it was loaded under.
type ParsedDocument struct {
	Name string
	Text string
}

// PDFParser extracts plain text from PDF files
type PDFParser struct{}

// NewPDFParser creates a new PDF parser
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts text from a PDF file on disk
func (p *PDFParser) Parse(filePath string) (*ParsedDocument, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	text, err := extractText(doc)
	if err != nil {
		return nil, err
	}

	return &ParsedDocument{
		Name: filepath.Base(filePath),
		Text: text,
	}, nil
}

// ParseBytes extracts text from in-memory PDF bytes, as delivered by an
// upload. fitz wants a path, so the bytes are staged through a temp file.
func (p *PDFParser) ParseBytes(data []byte, name string) (*ParsedDocument, error) {
	tmp, err := os.CreateTemp("", "docuchat-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	parsed, err := p.Parse(tmp.Name())
	if err != nil {
		return nil, err
	}
	parsed.Name = name
	return parsed, nil
}

// extractText pulls text page by page, joined by blank lines
func extractText(doc *fitz.Document) (string, error) {
	var textParts []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err == nil && strings.TrimSpace(text) != "" {
			textParts = append(textParts, text)
		}
	}
	return strings.Join(textParts, "\n\n"), nil
}
