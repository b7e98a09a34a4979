package filesearch

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/poiesic/fileoracle/core"
)

// Searcher lists files under a directory that match a keyword.
type Searcher interface {
	// ByName returns files under dir whose base name contains keyword, case-insensitively.
	ByName(ctx context.Context, keyword, dir string) ([]string, core.Outcome)

	// ByContent returns text files under dir whose contents contain keyword, case-insensitively.
	ByContent(ctx context.Context, keyword, dir string) ([]string, core.Outcome)
}

// New returns a ripgrep-backed Searcher when rg is installed and a native
// Walker otherwise. A nil logger uses slog.Default().
func New(limits Limits, logger *slog.Logger) Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	rg, err := NewRipgrep(limits, logger)
	if err == nil {
		return rg
	}
	logger.Info("ripgrep unavailable, using native walker", "err", err)
	return NewWalker(limits, logger)
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath
