package filesearch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/fileoracle/core"
)

// sniffLen is how many leading bytes are inspected for a NUL to detect binary files.
const sniffLen = 8000

// Walker implements Searcher natively with filepath.WalkDir.
type Walker struct {
	limits Limits
	logger *slog.Logger
}

var _ Searcher = (*Walker)(nil)

// NewWalker creates a native Searcher. A nil logger uses slog.Default().
func NewWalker(limits Limits, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		limits: limits,
		logger: logger.With("component", "walker"),
	}
}

// ByName lists files whose base names contain keyword case-insensitively.
func (w *Walker) ByName(ctx context.Context, keyword, dir string) ([]string, core.Outcome) {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil, core.OutcomeEmpty
	}
	return w.walk(ctx, "name", keyword, dir, 0, func(path string, _ fs.DirEntry) bool {
		return strings.Contains(strings.ToLower(filepath.Base(path)), needle)
	})
}

// ByContent lists text files whose contents contain keyword case-insensitively.
func (w *Walker) ByContent(ctx context.Context, keyword, dir string) ([]string, core.Outcome) {
	needle := []byte(strings.ToLower(strings.TrimSpace(keyword)))
	if len(needle) == 0 {
		return nil, core.OutcomeEmpty
	}
	return w.walk(ctx, "content", keyword, dir, w.limits.MaxDepth, func(path string, d fs.DirEntry) bool {
		if w.limits.binaryFile(d.Name()) {
			return false
		}
		if w.limits.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil || info.Size() > w.limits.MaxFileSize {
				return false
			}
		}
		return fileContains(path, needle)
	})
}

func (w *Walker) walk(ctx context.Context, channel, keyword, dir string, maxDepth int, match func(string, fs.DirEntry) bool) ([]string, core.Outcome) {
	if w.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.limits.Timeout)
		defer cancel()
	}

	root := filepath.Clean(dir)
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Debug("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		depth := pathDepth(root, path)
		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || w.limits.ExcludesDir(d.Name()) {
				return fs.SkipDir
			}
			if maxDepth > 0 && depth >= maxDepth {
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if match(path, d) {
			paths = append(paths, path)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.logger.Warn("search timed out", "channel", channel, "keyword", keyword, "dir", dir, "timeout", w.limits.Timeout)
			return nil, core.OutcomeTimedOut
		}
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("search directory missing", "channel", channel, "dir", dir)
			return nil, core.OutcomeNotFound
		}
		w.logger.Warn("search failed", "channel", channel, "keyword", keyword, "dir", dir, "err", err)
		return nil, core.OutcomeServiceError
	}

	if len(paths) == 0 {
		return nil, core.OutcomeEmpty
	}
	return paths, core.OutcomeOK
}

// pathDepth counts path elements of path below root; a direct child has depth 1.
func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// fileContains reports whether the file holds needle (already lowercased).
// Files with a NUL byte in their first sniffLen bytes are treated as binary.
func fileContains(path string, needle []byte) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return false
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	return bytes.Contains(bytes.ToLower(data), needle)
}
