package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/fileoracle/ai/mock"
	"github.com/poiesic/fileoracle/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSearcher answers from fixed tables and records every invocation.
// Keys are "dir|keyword" or just "keyword".
type stubSearcher struct {
	names    map[string][]string
	contents map[string][]string

	mu           sync.Mutex
	nameCalls    []string
	contentCalls []string
}

func (s *stubSearcher) ByName(_ context.Context, keyword, dir string) ([]string, core.Outcome) {
	s.mu.Lock()
	s.nameCalls = append(s.nameCalls, dir+"|"+keyword)
	s.mu.Unlock()
	return lookup(s.names, keyword, dir)
}

func (s *stubSearcher) ByContent(_ context.Context, keyword, dir string) ([]string, core.Outcome) {
	s.mu.Lock()
	s.contentCalls = append(s.contentCalls, dir+"|"+keyword)
	s.mu.Unlock()
	return lookup(s.contents, keyword, dir)
}

func (s *stubSearcher) NameCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.nameCalls...)
}

func (s *stubSearcher) ContentCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.contentCalls...)
}

func lookup(table map[string][]string, keyword, dir string) ([]string, core.Outcome) {
	paths, ok := table[dir+"|"+keyword]
	if !ok {
		paths = table[keyword]
	}
	if len(paths) == 0 {
		return nil, core.OutcomeEmpty
	}
	return paths, core.OutcomeOK
}

var errUnexpectedPrompt = errors.New("unexpected prompt")

// script routes each kind of prompt to a canned answer. A nil func fails the call.
type script struct {
	keywords  func(prompt string) (string, error)
	directory func(prompt string) (string, error)
	refine    func(prompt string) (string, error)
	rerank    func(prompt string) (string, error)
}

func answer(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}

func fail(err error) func(string) (string, error) {
	return func(string) (string, error) { return "", err }
}

// firstListed picks the first subdirectory offered in a directory prompt.
func firstListed(prompt string) (string, error) {
	_, list, ok := strings.Cut(prompt, "Subdirectories: ")
	if !ok {
		return "none", nil
	}
	first, _, _ := strings.Cut(list, ", ")
	return first, nil
}

func (s script) completer() *mock.MockCompleter {
	m := mock.NewMockCompleter()
	m.CompleteFunc = func(_ context.Context, prompt string) (string, error) {
		var fn func(string) (string, error)
		switch {
		case strings.HasPrefix(prompt, "Given the search query:"):
			fn = s.keywords
		case strings.Contains(prompt, "Subdirectories:"):
			fn = s.directory
		case strings.HasPrefix(prompt, "Refine the following"):
			fn = s.refine
		case strings.Contains(prompt, "Files:\n"):
			fn = s.rerank
		}
		if fn == nil {
			return "", errUnexpectedPrompt
		}
		return fn(prompt)
	}
	return m
}

// recordingMonitor counts hook invocations.
type recordingMonitor struct {
	mu          sync.Mutex
	starts      []int
	steps       []NarrowState
	narrowed    [][]string
	overridden  []bool
	channels    map[Channel]int
	fellBack    []bool
	refinements []string
	reranked    []string
	finished    *core.SearchReport
}

var _ SearchMonitor = (*recordingMonitor)(nil)

func newRecordingMonitor() *recordingMonitor {
	return &recordingMonitor{channels: make(map[Channel]int)}
}

func (r *recordingMonitor) Start(_ string, attempt int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, attempt)
}

func (r *recordingMonitor) NarrowStep(_ string, state NarrowState, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, state)
}

func (r *recordingMonitor) AfterNarrowing(dirs []string, overridden bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.narrowed = append(r.narrowed, dirs)
	r.overridden = append(r.overridden, overridden)
}

func (r *recordingMonitor) AfterKeywordGeneration(_ core.KeywordSet, _ core.Outcome) {}

func (r *recordingMonitor) ChannelSearch(channel Channel, _, _ string, _ int, _ core.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[channel]++
}

func (r *recordingMonitor) AfterFiltering(_, _ int, fellBack bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fellBack = append(r.fellBack, fellBack)
}

func (r *recordingMonitor) Refined(_, to string, _ core.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refinements = append(r.refinements, to)
}

func (r *recordingMonitor) AfterRerank(best string, _ core.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reranked = append(r.reranked, best)
}

func (r *recordingMonitor) Finish(report *core.SearchReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = report
}
