package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/filesearch"
)

// DefaultNameThreshold is the name-hit count at which content search is skipped.
const DefaultNameThreshold = 3

// DualChannel searches a directory by file name and, when names yield too
// little, by file content.
type DualChannel struct {
	searcher      filesearch.Searcher
	nameThreshold int
	logger        *slog.Logger
}

// NewDualChannel creates a DualChannel. nameThreshold below 1 uses DefaultNameThreshold.
func NewDualChannel(searcher filesearch.Searcher, nameThreshold int, logger *slog.Logger) *DualChannel {
	if nameThreshold < 1 {
		nameThreshold = DefaultNameThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DualChannel{
		searcher:      searcher,
		nameThreshold: nameThreshold,
		logger:        logger.With("component", "dualchannel"),
	}
}

// SearchDirectory runs the name channel for every keyword, then the content
// channel for every keyword only if the name hits accumulated for dir stay
// below the threshold. Returns the union of both channels.
func (c *DualChannel) SearchDirectory(ctx context.Context, dir string, keywords core.KeywordSet) core.ResultSet {
	return c.searchDirectory(ctx, dir, keywords, &noopMonitor{})
}

func (c *DualChannel) searchDirectory(ctx context.Context, dir string, keywords core.KeywordSet, monitor SearchMonitor) core.ResultSet {
	results := core.NewResultSet()

	nameHits := 0
	for _, keyword := range keywords {
		paths, outcome := c.searcher.ByName(ctx, keyword, dir)
		monitor.ChannelSearch(ChannelName, dir, keyword, len(paths), outcome)
		nameHits += len(paths)
		results.Add(paths...)
	}

	if nameHits >= c.nameThreshold {
		c.logger.Debug("name hits sufficient, skipping content search", "dir", dir, "hits", nameHits)
		return results
	}

	for _, keyword := range keywords {
		paths, outcome := c.searcher.ByContent(ctx, keyword, dir)
		monitor.ChannelSearch(ChannelContent, dir, keyword, len(paths), outcome)
		results.Add(paths...)
	}
	return results
}
