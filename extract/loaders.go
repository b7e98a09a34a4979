package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/net/html/charset"
)

// decodeText converts raw file bytes to UTF-8, guessing the encoding
// when the content is not already valid UTF-8.
func decodeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return string(raw)
	}
	enc, _, _ := charset.DetermineEncoding(raw, "")
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "")
	}
	return string(decoded)
}

func loadPDF(ctx context.Context, raw []byte) (string, error) {
	docs, err := documentloaders.NewPDF(bytes.NewReader(raw), int64(len(raw))).Load(ctx)
	if err != nil {
		return "", err
	}
	return joinDocuments(docs, "\n\n"), nil
}

func loadHTML(ctx context.Context, raw []byte) (string, error) {
	docs, err := documentloaders.NewHTML(bytes.NewReader(raw)).Load(ctx)
	if err != nil {
		return "", err
	}
	return joinDocuments(docs, "\n\n"), nil
}

// loadCSV renders each row as "column: value" lines.
func loadCSV(ctx context.Context, raw []byte) (string, error) {
	docs, err := documentloaders.NewCSV(bytes.NewReader(raw)).Load(ctx)
	if err != nil {
		return "", err
	}
	return joinDocuments(docs, "\n\n"), nil
}

func joinDocuments(docs []schema.Document, sep string) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if text := strings.TrimSpace(doc.PageContent); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, sep)
}
