package search

import (
	"github.com/poiesic/fileoracle/core"
)

// NarrowState is a step of the directory descent state machine.
type NarrowState int

const (
	// StateAtDirectory means the narrower is about to inspect a directory.
	StateAtDirectory NarrowState = iota
	// StateDescending means a subdirectory was chosen and the narrower is moving into it.
	StateDescending
	// StateTerminal means no further descent happens; the current directory is final.
	StateTerminal
)

// String returns the state name.
func (s NarrowState) String() string {
	switch s {
	case StateAtDirectory:
		return "at_directory"
	case StateDescending:
		return "descending"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Channel identifies one of the two file search channels.
type Channel string

const (
	ChannelName    Channel = "name"
	ChannelContent Channel = "content"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Narrowing and directory search run concurrently, so implementations must be
// safe for concurrent use.
type SearchMonitor interface {
	Start(query string, attempt int)
	NarrowStep(root string, state NarrowState, dir string)
	AfterNarrowing(dirs []string, overridden bool)
	AfterKeywordGeneration(keywords core.KeywordSet, outcome core.Outcome)
	ChannelSearch(channel Channel, dir, keyword string, hits int, outcome core.Outcome)
	AfterFiltering(before, after int, fellBack bool)
	Refined(from, to string, outcome core.Outcome)
	AfterRerank(best string, outcome core.Outcome)
	Finish(report *core.SearchReport)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                                       {}
func (n *noopMonitor) NarrowStep(_ string, _ NarrowState, _ string)                {}
func (n *noopMonitor) AfterNarrowing(_ []string, _ bool)                           {}
func (n *noopMonitor) AfterKeywordGeneration(_ core.KeywordSet, _ core.Outcome)    {}
func (n *noopMonitor) ChannelSearch(_ Channel, _, _ string, _ int, _ core.Outcome) {}
func (n *noopMonitor) AfterFiltering(_, _ int, _ bool)                             {}
func (n *noopMonitor) Refined(_, _ string, _ core.Outcome)                         {}
func (n *noopMonitor) AfterRerank(_ string, _ core.Outcome)                        {}
func (n *noopMonitor) Finish(_ *core.SearchReport)                                 {}
