package infrastructure

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"code.sajari.com/docconv"
	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// PDFExtractor extracts embedded text from PDF bytes page by page. Pages
// that fail to parse are skipped; a PDF with no extractable text at all
// (e.g. a scanned image) returns an error.
type PDFExtractor struct{}

func (PDFExtractor) Extract(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var textBuilder strings.Builder
	extractedAnyText := false

	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			continue
		}
		if pageText != "" {
			extractedAnyText = true
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n\n")
		}
	}

	if !extractedAnyText {
		return "", fmt.Errorf("no text could be extracted from any page of the PDF")
	}
	return strings.TrimSpace(textBuilder.String()), nil
}

var docxTagRe = regexp.MustCompile(`<[^>]+>`)

// DocxExtractor reads modern Word documents. The docx library exposes the
// document XML; paragraph closes become newlines before tags are stripped.
type DocxExtractor struct{}

func (DocxExtractor) Extract(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = docxTagRe.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")

	return strings.TrimSpace(content), nil
}

// DocExtractor handles legacy Word documents via docconv.
type DocExtractor struct{}

func (DocExtractor) Extract(data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), "application/msword", true)
	if err != nil {
		return "", fmt.Errorf("failed to convert DOC: %w", err)
	}
	return strings.TrimSpace(res.Body), nil
}
