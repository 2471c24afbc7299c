package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ats-pipeline/domain"
)

// Extraction converts resume bytes to text per media type and drives the
// AI extraction. Its preconditions and postcondition turn junk input into
// permanent errors before they waste retries.
type Extraction struct {
	extractors map[string]domain.TextExtractor
	ai         domain.AIExtractor
	minTextLen int
	log        *zap.Logger
}

func NewExtraction(ai domain.AIExtractor, minTextLen int, logger *zap.Logger) *Extraction {
	return &Extraction{
		extractors: make(map[string]domain.TextExtractor),
		ai:         ai,
		minTextLen: minTextLen,
		log:        logger,
	}
}

// Register binds a text extractor to a media-type kind ("pdf", "doc", "docx").
func (e *Extraction) Register(kind string, ex domain.TextExtractor) {
	e.extractors[kind] = ex
}

// mediaKind maps declared/sniffed MIME types and bare extensions onto the
// supported extractor kinds.
func mediaKind(mediaType string) string {
	t := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(t, ";"); i != -1 {
		t = t[:i]
	}
	switch t {
	case "application/pdf", "pdf":
		return "pdf"
	case "application/msword", "doc":
		return "doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx":
		return "docx"
	}
	return ""
}

// Run extracts text from the document and asks the AI for structured
// fields. The returned raw string is the verbatim model response, kept even
// on a parse failure so a failed task still leaves an audit trail.
func (e *Extraction) Run(ctx context.Context, data []byte, mediaType string) (*domain.ExtractedCandidate, string, error) {
	kind := mediaKind(mediaType)
	if kind == "" {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, mediaType)
	}
	ex, ok := e.extractors[kind]
	if !ok {
		return nil, "", fmt.Errorf("%w: no extractor for %s", domain.ErrUnsupportedMedia, kind)
	}

	text, err := ex.Extract(data)
	if err != nil {
		// Unreadable bytes are a property of the input, not of the
		// dependency; treat like a scanned image with no text.
		return nil, "", fmt.Errorf("%w: %v", domain.ErrEmptyExtraction, err)
	}
	if len(text) < e.minTextLen {
		return nil, "", fmt.Errorf("%w: got %d chars, need %d",
			domain.ErrEmptyExtraction, len(text), e.minTextLen)
	}

	extracted, raw, err := e.ai.ExtractCandidate(ctx, text)
	if err != nil {
		return nil, raw, fmt.Errorf("ai extraction failed: %w", err)
	}

	// A syntactically valid but semantically empty result is an error: if
	// neither of the two highest-signal identity fields survived, the model
	// did not actually read a resume.
	if strings.TrimSpace(extracted.Name) == "" && strings.TrimSpace(extracted.Phone) == "" {
		return nil, raw, domain.ErrEmptyAIResult
	}

	return extracted, raw, nil
}
