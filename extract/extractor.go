package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultMaxFileSize bounds how much of a local file is read.
const DefaultMaxFileSize = 25 << 20

const (
	googleDocPrefix   = "gdoc:"
	googleSheetPrefix = "gsheet:"

	defaultGoogleBaseURL = "https://docs.google.com"
)

// Extractor turns a document reference into plain text.
type Extractor interface {
	// Extract returns the text of ref, a local path or a gdoc:/gsheet: reference.
	// Unknown formats return ErrUnsupported.
	Extract(ctx context.Context, ref string) (string, error)

	// Supports reports whether ref has a recognized format.
	Supports(ref string) bool
}

type format int

const (
	formatUnknown format = iota
	formatText
	formatPDF
	formatHTML
	formatCSV
	formatDocx
	formatGoogleDoc
	formatGoogleSheet
)

var extensionFormats = map[string]format{
	".pdf":  formatPDF,
	".html": formatHTML,
	".htm":  formatHTML,
	".csv":  formatCSV,
	".docx": formatDocx,
}

// TextExtensions lists the extensions decoded as plain text.
var TextExtensions = []string{
	".txt", ".md", ".py", ".js", ".lua", ".go", ".json", ".yaml", ".yml", ".toml",
	".rst", ".org", ".sh", ".rb", ".java", ".c", ".h", ".ts", ".css", ".ini", ".cfg",
	".log", ".tex",
}

func init() {
	for _, ext := range TextExtensions {
		extensionFormats[ext] = formatText
	}
}

// SupportedExtensions returns every local file extension with an extractor.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionFormats))
	for ext := range extensionFormats {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func formatOf(ref string) format {
	switch {
	case strings.HasPrefix(ref, googleDocPrefix):
		return formatGoogleDoc
	case strings.HasPrefix(ref, googleSheetPrefix):
		return formatGoogleSheet
	}
	return extensionFormats[strings.ToLower(filepath.Ext(ref))]
}

// fileExtractor is the default Extractor.
type fileExtractor struct {
	client        *http.Client
	google        *googleAPI
	googleBaseURL string
	maxFileSize   int64
	logger        *slog.Logger
}

var _ Extractor = (*fileExtractor)(nil)

// Option configures an Extractor.
type Option func(*fileExtractor) error

// WithHTTPClient sets the client used for remote documents.
func WithHTTPClient(client *http.Client) Option {
	return func(e *fileExtractor) error {
		if client == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		e.client = client
		return nil
	}
}

// WithGoogleBaseURL overrides the Google export host.
func WithGoogleBaseURL(baseURL string) Option {
	return func(e *fileExtractor) error {
		e.googleBaseURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithGoogleClient reads gdoc: and gsheet: references through the Docs and
// Sheets APIs. client must carry Google credentials, see GoogleHTTPClient.
// The export endpoints remain the fallback when an API call fails.
func WithGoogleClient(client *http.Client, apiOpts ...option.ClientOption) Option {
	return func(e *fileExtractor) error {
		if client == nil {
			return fmt.Errorf("google client cannot be nil")
		}
		opts := append([]option.ClientOption{option.WithHTTPClient(client)}, apiOpts...)
		ctx := context.Background()
		docsService, err := docs.NewService(ctx, opts...)
		if err != nil {
			return fmt.Errorf("creating docs service: %w", err)
		}
		sheetsService, err := sheets.NewService(ctx, opts...)
		if err != nil {
			return fmt.Errorf("creating sheets service: %w", err)
		}
		e.google = &googleAPI{docs: docsService, sheets: sheetsService}
		return nil
	}
}

// WithMaxFileSize sets the largest local file that will be read.
// Zero or negative values keep the default.
func WithMaxFileSize(size int64) Option {
	return func(e *fileExtractor) error {
		if size > 0 {
			e.maxFileSize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *fileExtractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) (Extractor, error) {
	return newExtractor(opts...)
}

func newExtractor(opts ...Option) (*fileExtractor, error) {
	e := &fileExtractor{
		client:        &http.Client{Timeout: 30 * time.Second},
		googleBaseURL: defaultGoogleBaseURL,
		maxFileSize:   DefaultMaxFileSize,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "extractor")
	return e, nil
}

func (e *fileExtractor) Supports(ref string) bool {
	return formatOf(ref) != formatUnknown
}

func (e *fileExtractor) Extract(ctx context.Context, ref string) (string, error) {
	f := formatOf(ref)
	switch f {
	case formatUnknown:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ref)
	case formatGoogleDoc:
		return e.fetchGoogleDoc(ctx, strings.TrimPrefix(ref, googleDocPrefix))
	case formatGoogleSheet:
		return e.fetchGoogleSheet(ctx, strings.TrimPrefix(ref, googleSheetPrefix))
	}

	raw, err := e.readFile(ref)
	if err != nil {
		return "", err
	}
	e.logger.Debug("extracting", "path", ref, "bytes", len(raw))

	var text string
	switch f {
	case formatText:
		text = decodeText(raw)
	case formatPDF:
		text, err = loadPDF(ctx, raw)
	case formatHTML:
		text, err = loadHTML(ctx, raw)
	case formatCSV:
		text, err = loadCSV(ctx, raw)
	case formatDocx:
		text, err = docxText(raw)
	}
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", ref, err)
	}
	return strings.TrimSpace(text), nil
}

func (e *fileExtractor) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupported, path)
	}
	if info.Size() > e.maxFileSize {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrTooLarge, path, info.Size())
	}
	return os.ReadFile(path)
}
