package platform

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ArticleExtractor recovers the readable text of a linked page so the
// deep-scan path can run the body channel against it.
type ArticleExtractor struct{}

func NewArticleExtractor() *ArticleExtractor {
	return &ArticleExtractor{}
}

func (e *ArticleExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract article: %w", err)
	}

	if article.TextContent == "" {
		return "", fmt.Errorf("no text extracted from HTML data")
	}

	slog.Debug("Article text extracted",
		"title", article.Title,
		"text_length", len(article.TextContent))

	return article.TextContent, nil
}
