package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/filesearch"
)

// DefaultMaxDepth bounds directory descent.
const DefaultMaxDepth = 8

// noneAnswer is the model's way of declining to pick a subdirectory.
const noneAnswer = "none"

// Narrower descends from a root directory into the single most relevant
// subdirectory, one model decision per level.
type Narrower struct {
	completer ai.Completer
	maxDepth  int
	limits    filesearch.Limits
	logger    *slog.Logger
}

// NewNarrower creates a Narrower. maxDepth below 1 uses DefaultMaxDepth.
// Directories excluded by limits and hidden directories are never offered to the model.
func NewNarrower(completer ai.Completer, maxDepth int, limits filesearch.Limits, logger *slog.Logger) *Narrower {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrower{
		completer: completer,
		maxDepth:  maxDepth,
		limits:    limits,
		logger:    logger.With("component", "narrower"),
	}
}

// SelectBestSubdirectory asks the model which immediate subdirectory of dir
// most likely holds files relevant to query.
//
// Returns the subdirectory name with its on-disk spelling, or "" when there is
// nothing to choose from, the model declines, the listing or completion fails,
// or the answer does not case-insensitively name a listed subdirectory.
func (n *Narrower) SelectBestSubdirectory(ctx context.Context, dir, query string) (string, core.Outcome) {
	subdirs, err := n.listSubdirectories(dir)
	if err != nil {
		n.logger.Warn("cannot list directory", "dir", dir, "err", err)
		return "", core.OutcomeNotFound
	}
	if len(subdirs) == 0 {
		return "", core.OutcomeEmpty
	}

	prompt := fmt.Sprintf(directoryPrompt, query, dir, strings.Join(subdirs, ", "))
	response, err := n.completer.Complete(ctx, prompt)
	if err != nil {
		outcome := outcomeOf(err)
		n.logger.Warn("directory selection failed", "dir", dir, "outcome", outcome, "err", err)
		return "", outcome
	}

	choice := cleanChoice(response)
	for _, name := range subdirs {
		if strings.EqualFold(name, choice) {
			return name, core.OutcomeOK
		}
	}
	if strings.EqualFold(choice, noneAnswer) {
		return "", core.OutcomeEmpty
	}

	n.logger.Debug("model named no listed subdirectory", "dir", dir, "response", response)
	return "", core.OutcomeNotFound
}

// Traverse descends from root until the model declines, nothing is left to
// choose, or the depth bound is hit. Returns the deepest directory reached.
func (n *Narrower) Traverse(ctx context.Context, root, query string) string {
	return n.TraverseWithMonitor(ctx, root, query, nil)
}

// TraverseWithMonitor is Traverse reporting each state transition to monitor.
func (n *Narrower) TraverseWithMonitor(ctx context.Context, root, query string, monitor SearchMonitor) string {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	current := root
	for depth := 0; ; depth++ {
		monitor.NarrowStep(root, StateAtDirectory, current)
		if depth >= n.maxDepth {
			n.logger.Debug("depth bound reached", "root", root, "dir", current, "maxDepth", n.maxDepth)
			break
		}
		if ctx.Err() != nil {
			break
		}

		choice, _ := n.SelectBestSubdirectory(ctx, current, query)
		if choice == "" {
			break
		}
		current = filepath.Join(current, choice)
		monitor.NarrowStep(root, StateDescending, current)
	}

	monitor.NarrowStep(root, StateTerminal, current)
	n.logger.Debug("narrowed root", "root", root, "dir", current)
	return current
}

// listSubdirectories returns the visible, non-excluded immediate subdirectories of dir in lexical order.
func (n *Narrower) listSubdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var subdirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || n.limits.ExcludesDir(name) {
			continue
		}
		subdirs = append(subdirs, name)
	}
	return subdirs, nil
}
