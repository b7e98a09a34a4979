package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxRemoteSize bounds a downloaded export.
const maxRemoteSize = 50 << 20

func (e *fileExtractor) fetchGoogleDoc(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	var apiErr error
	if e.google != nil && id != "" {
		text, err := e.google.documentText(ctx, id)
		if err == nil {
			return text, nil
		}
		apiErr = err
		e.logger.Warn("docs api failed, trying export", "id", id, "err", err)
	}

	raw, err := e.fetch(ctx, "document", id, "txt")
	if err != nil {
		return "", withAPIError(err, apiErr)
	}
	return strings.TrimSpace(decodeText(raw)), nil
}

func (e *fileExtractor) fetchGoogleSheet(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	var apiErr error
	if e.google != nil && id != "" {
		tabs, err := e.google.sheetCSV(ctx, id)
		if err == nil {
			texts := make([]string, 0, len(tabs))
			for _, tab := range tabs {
				text, err := loadCSV(ctx, tab)
				if err != nil {
					return "", fmt.Errorf("%w: sheet %s: %w", ErrMalformed, id, err)
				}
				texts = append(texts, text)
			}
			return strings.Join(texts, "\n\n"), nil
		}
		apiErr = err
		e.logger.Warn("sheets api failed, trying export", "id", id, "err", err)
	}

	raw, err := e.fetch(ctx, "spreadsheets", id, "csv")
	if err != nil {
		return "", withAPIError(err, apiErr)
	}
	text, err := loadCSV(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("%w: sheet %s: %w", ErrMalformed, id, err)
	}
	return text, nil
}

// withAPIError keeps the API failure visible when the export fallback fails too.
func withAPIError(exportErr, apiErr error) error {
	if apiErr == nil {
		return exportErr
	}
	return fmt.Errorf("%w (api: %v)", exportErr, apiErr)
}

func (e *fileExtractor) fetch(ctx context.Context, kind, id, format string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty document id", ErrFetchFailed)
	}
	u := fmt.Sprintf("%s/%s/d/%s/export?format=%s", e.googleBaseURL, kind, url.PathEscape(id), format)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	e.logger.Debug("fetching export", "kind", kind, "id", id)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s returned %s", ErrFetchFailed, kind, id, resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return raw, nil
}
