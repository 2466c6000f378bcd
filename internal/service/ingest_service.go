package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"unified-assistant/internal/chunker"
	"unified-assistant/internal/models"
	"unified-assistant/internal/vectorstore"
	"unified-assistant/pkg/config"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnsupportedDocument means the source file cannot be ingested: wrong
// extension or no extractable text. Caller error, surfaced as 400.
var ErrUnsupportedDocument = errors.New("unsupported document")

// DocumentRegistry records ingested files. Optional: a nil registry skips
// bookkeeping (memory index mode).
type DocumentRegistry interface {
	Create(ctx context.Context, doc *models.Document) error
	DeleteByDomain(ctx context.Context, domain models.Domain) error
}

// IngestService loads source documents, splits them into chunks, embeds each
// chunk and replaces the domain's index partition. Re-ingestion always
// rebuilds the partition; chunks are never updated in place.
type IngestService struct {
	indexes map[models.Domain]vectorstore.Index
	llm     LLMClient
	docs    DocumentRegistry
	cfg     *config.RAGConfig
	logger  *zap.Logger
}

func NewIngestService(
	indexes map[models.Domain]vectorstore.Index,
	llmClient LLMClient,
	docs DocumentRegistry,
	cfg *config.RAGConfig,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		indexes: indexes,
		llm:     llmClient,
		docs:    docs,
		cfg:     cfg,
		logger:  logger,
	}
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Documents int
	Chunks    int
}

// preparedDoc is a fully embedded document waiting to be committed.
type preparedDoc struct {
	doc    *models.Document
	chunks []models.Chunk
}

var supportedExtensions = map[string]bool{
	".md":  true,
	".txt": true,
	".pdf": true,
}

// IngestFolder rebuilds a domain partition from every supported file in dir.
// All documents are split and embedded before the old partition is touched,
// so a failed run leaves the live index as it was.
func (s *IngestService) IngestFolder(ctx context.Context, domain models.Domain, dir string) (*IngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no supported documents found in %s", ErrUnsupportedDocument, dir)
	}

	index, ok := s.indexes[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDomainNotConfigured, domain)
	}

	prepared := make([]*preparedDoc, 0, len(paths))
	for _, path := range paths {
		p, err := s.prepareFile(ctx, domain, path)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, p)
	}

	if err := s.commit(ctx, domain, index, prepared); err != nil {
		return nil, err
	}

	result := &IngestResult{Documents: len(prepared)}
	for _, p := range prepared {
		result.Chunks += len(p.chunks)
	}

	s.logger.Info("Ingestion complete",
		zap.String("domain", string(domain)),
		zap.Int("documents", result.Documents),
		zap.Int("chunks", result.Chunks),
	)
	return result, nil
}

// IngestUpload saves an uploaded file under the upload dir and rebuilds the
// domain partition from it (original HC flow: one manual, replaced wholesale).
// The existing partition survives until the replacement is fully embedded.
func (s *IngestService) IngestUpload(ctx context.Context, domain models.Domain, file io.Reader, fileName string) (*IngestResult, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: file type %s (supported: pdf, md, txt)", ErrUnsupportedDocument, ext)
	}

	index, ok := s.indexes[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDomainNotConfigured, domain)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	path := filepath.Join(s.cfg.UploadDir, uuid.New().String()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	dst.Close()

	prepared, err := s.prepareFile(ctx, domain, path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	if err := s.commit(ctx, domain, index, []*preparedDoc{prepared}); err != nil {
		return nil, err
	}
	return &IngestResult{Documents: 1, Chunks: len(prepared.chunks)}, nil
}

// prepareFile loads, splits and embeds one document. No index or registry
// state is touched; failures here leave the live partition intact.
func (s *IngestService) prepareFile(ctx context.Context, domain models.Domain, path string) (*preparedDoc, error) {
	text, size, err := loadText(path)
	if err != nil {
		return nil, err
	}
	text = sanitizeUTF8(text)

	meta := extractMetadata(text, filepath.Base(path))

	domainCfg := s.domainConfig(domain)
	splitter := chunker.NewSplitter(domain, domainCfg.ChunkSize, domainCfg.ChunkOverlap)
	pieces := splitter.Split(text)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: no text extracted from %s", ErrUnsupportedDocument, filepath.Base(path))
	}

	now := time.Now()
	chunks := make([]models.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		embedding, err := s.llm.Embed(ctx, piece)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding: %w", models.ErrRetrievalUnavailable, err)
		}
		chunks = append(chunks, models.Chunk{
			ID:         uuid.New(),
			Domain:     domain,
			DocumentID: meta.DocumentID,
			Title:      meta.Title,
			DocType:    meta.DocType,
			SourceFile: filepath.Base(path),
			Text:       piece,
			Embedding:  embedding,
			CreatedAt:  now,
		})
	}

	return &preparedDoc{
		doc: &models.Document{
			ID:         uuid.New(),
			Domain:     domain,
			FileName:   filepath.Base(path),
			FileSize:   size,
			ChunkCount: len(chunks),
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		chunks: chunks,
	}, nil
}

// commit replaces the domain partition with the prepared documents. Runs only
// after every chunk is embedded.
func (s *IngestService) commit(ctx context.Context, domain models.Domain, index vectorstore.Index, prepared []*preparedDoc) error {
	if err := index.Clear(ctx); err != nil {
		return fmt.Errorf("%w: clearing index: %w", models.ErrRetrievalUnavailable, err)
	}
	if s.docs != nil {
		if err := s.docs.DeleteByDomain(ctx, domain); err != nil {
			return fmt.Errorf("failed to clear document registry: %w", err)
		}
	}

	for _, p := range prepared {
		if err := index.Upsert(ctx, p.chunks); err != nil {
			return fmt.Errorf("%w: indexing: %w", models.ErrRetrievalUnavailable, err)
		}
		if s.docs != nil {
			if err := s.docs.Create(ctx, p.doc); err != nil {
				return fmt.Errorf("failed to record document: %w", err)
			}
		}
		s.logger.Info("Document ingested",
			zap.String("domain", string(domain)),
			zap.String("file", p.doc.FileName),
			zap.Int("chunks", len(p.chunks)),
		)
	}
	return nil
}

func (s *IngestService) domainConfig(domain models.Domain) config.DomainConfig {
	if domain == models.DomainSOP {
		return s.cfg.SOP
	}
	return s.cfg.HC
}

// loadText reads document text: markdown and plain text directly, PDF page
// by page through go-fitz.
func loadText(path string) (string, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		text, err := extractTextFromPDF(path)
		return text, info.Size(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	return string(data), info.Size(), nil
}

func extractTextFromPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			continue
		}
		if pageText != "" {
			b.WriteString(pageText)
			b.WriteString("\n")
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text found in PDF", ErrUnsupportedDocument)
	}
	return text, nil
}

// documentMeta is header metadata pulled from the document text.
type documentMeta struct {
	DocumentID string
	Title      string
	Version    string
	DocType    string
}

var (
	docIDRe   = regexp.MustCompile(`Document ID:\s*([\w-]+)`)
	titleRe   = regexp.MustCompile(`Title:\s*(.+)`)
	versionRe = regexp.MustCompile(`Version:\s*([\d.]+)`)
)

// extractMetadata parses the document header conventions used by the SOP
// corpus. Files without headers fall back to the file name.
func extractMetadata(content, fileName string) documentMeta {
	meta := documentMeta{
		DocumentID: strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		Title:      fileName,
		DocType:    "Document",
	}

	if m := docIDRe.FindStringSubmatch(content); m != nil {
		meta.DocumentID = m[1]
	}
	if m := titleRe.FindStringSubmatch(content); m != nil {
		meta.Title = strings.TrimSpace(m[1])
	}
	if m := versionRe.FindStringSubmatch(content); m != nil {
		meta.Version = m[1]
	}

	switch {
	case strings.Contains(meta.DocumentID, "SOP"):
		meta.DocType = "Standard Operating Procedure"
	case strings.Contains(meta.DocumentID, "WI"):
		meta.DocType = "Work Instruction"
	case strings.Contains(meta.DocumentID, "QA"):
		meta.DocType = "Quality Assurance Document"
	}

	return meta
}
