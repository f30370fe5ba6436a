package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/xiaot623/learnchat/internal/domain"
)

const maxPDFBytes = 64 << 20

// ExtractPDF downloads a PDF and returns its text, page by page.
func (s *Service) ExtractPDF(ctx context.Context, req *domain.ExtractRequest) (*domain.ExtractedDocument, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: URL is required", domain.ErrInvalidRequest)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url: %v", domain.ErrInvalidRequest, err)
	}
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch pdf: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pdf: %w", err)
	}

	doc, err := extractPDFText(data)
	if err != nil {
		s.logger.Warn("pdf extraction failed", "url", req.URL, "error", err)
		return nil, err
	}
	s.logger.Debug("pdf extracted", "url", req.URL, "pages", len(doc.Pages))
	return doc, nil
}

func extractPDFText(data []byte) (doc *domain.ExtractedDocument, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}

	doc = &domain.ExtractedDocument{Pages: []domain.ExtractedPage{}}
	var all strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		doc.Pages = append(doc.Pages, domain.ExtractedPage{Number: i, Text: text})
		if text != "" {
			if all.Len() > 0 {
				all.WriteString("\n\n")
			}
			all.WriteString(text)
		}
	}
	doc.Text = all.String()
	return doc, nil
}
