package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/readeck/go-readability"
)

// PreviewExtractor distills a fetched report page into a short plain text
// summary suitable for a notification body.
type PreviewExtractor struct {
	maxChars int
}

func NewPreviewExtractor(maxChars int) *PreviewExtractor {
	return &PreviewExtractor{maxChars: maxChars}
}

func (e *PreviewExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if text == "" {
		return "", fmt.Errorf("no text extracted from HTML data")
	}

	if runes := []rune(text); len(runes) > e.maxChars {
		text = strings.TrimSpace(string(runes[:e.maxChars])) + "…"
	}

	slog.Debug("Preview extracted successfully",
		"title", article.Title,
		"chars", len(text))

	return text, nil
}
