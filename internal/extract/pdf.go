// Package extract turns PDF bytes into per-page text lines.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lbarros/extratoflow/internal/service"
)

// PDFExtractor implements service.TextExtractor over the pure-Go pdf reader.
// Its page and line segmentation is what the parsers consume as authoritative.
type PDFExtractor struct{}

// NewPDFExtractor returns a ready extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages reads every page's text rows. Cancellation is checked between
// pages, so a canceled run stops without finishing the document. The pdf
// library panics on some malformed files; that surfaces as an error, not a
// crash.
func (e *PDFExtractor) ExtractPages(ctx context.Context, pdfData []byte) (pages []service.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf reader crashed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	for i := 1; i <= numPages; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		lines := pageLines(page)
		pages = append(pages, service.Page{
			Number:  i,
			Lines:   lines,
			RawText: strings.Join(lines, "\n"),
		})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf produced no extractable text")
	}
	return pages, nil
}

// pageLines reads one page's rows top to bottom, joining the words of a row
// with single spaces and dropping blank rows.
func pageLines(page pdf.Page) []string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}

	var lines []string
	for _, row := range rows {
		parts := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
