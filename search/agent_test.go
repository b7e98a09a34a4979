package search

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/fileoracle/ai/mock"
	"github.com/poiesic/fileoracle/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgent(t *testing.T, roots []string, completer *mock.MockCompleter, searcher *stubSearcher, opts ...Option) *Agent {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger()), WithPoolSize(2)}, opts...)
	agent, err := NewAgent(roots, completer, searcher, opts...)
	require.NoError(t, err)
	t.Cleanup(agent.Release)
	return agent
}

func TestNewAgent(t *testing.T) {
	completer := mock.NewMockCompleter("x")
	searcher := &stubSearcher{}

	t.Run("valid configuration", func(t *testing.T) {
		agent, err := NewAgent([]string{"/docs"}, completer, searcher)
		require.NoError(t, err)
		defer agent.Release()
		assert.Equal(t, DefaultMaxAttempts, agent.maxAttempts)
		assert.Equal(t, DefaultMinMatches, agent.minMatches)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		agent, err := NewAgent([]string{"/docs"}, completer, searcher, WithLogger(nil))
		require.NoError(t, err)
		agent.Release()
	})

	t.Run("no roots", func(t *testing.T) {
		_, err := NewAgent(nil, completer, searcher)
		assert.True(t, errors.Is(err, ErrNoRoots))
		assert.True(t, errors.Is(err, core.ErrNoRoots))
	})

	t.Run("blank root", func(t *testing.T) {
		_, err := NewAgent([]string{"/docs", " "}, completer, searcher)
		assert.True(t, errors.Is(err, ErrNoRoots))
		assert.True(t, errors.Is(err, core.ErrEmptyRoot))
	})

	t.Run("nil completer", func(t *testing.T) {
		_, err := NewAgent([]string{"/docs"}, nil, searcher)
		assert.Equal(t, ErrCompleterRequired, err)
	})

	t.Run("nil searcher", func(t *testing.T) {
		_, err := NewAgent([]string{"/docs"}, completer, nil)
		assert.Equal(t, ErrSearcherRequired, err)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		_, err := NewAgent([]string{"/docs"}, completer, searcher, WithMaxAttempts(0))
		assert.Error(t, err)
	})
}

func TestAgentEndToEnd(t *testing.T) {
	docs := t.TempDir()
	best := filepath.Join(docs, "q4_budget.xlsx")

	completer := script{
		keywords: answer("budget, projections, Q4"),
		rerank:   answer(best),
	}.completer()
	searcher := &stubSearcher{
		names: map[string][]string{"budget": {best}},
	}
	agent := newTestAgent(t, []string{docs}, completer, searcher,
		WithNameThreshold(1), WithMinMatches(1))

	report, err := agent.Search(context.Background(), "Q4 budget projections")

	require.NoError(t, err)
	assert.Equal(t, best, report.BestFile)
	assert.Equal(t, []string{best}, report.Candidates)
	assert.Equal(t, core.OutcomeOK, report.Outcome)
	assert.Equal(t, 1, report.Attempts)
	assert.Equal(t, core.KeywordSet{"budget", "projections", "Q4"}, report.Keywords)
	assert.Empty(t, searcher.ContentCalls())
	assert.Len(t, searcher.NameCalls(), 3)
}

func TestAgentTerminatesWhenNothingIsFound(t *testing.T) {
	docs := t.TempDir()
	refinements := 0
	completer := script{
		keywords: answer("nothing"),
		refine: func(string) (string, error) {
			refinements++
			return "a better query", nil
		},
	}.completer()
	searcher := &stubSearcher{}
	monitor := newRecordingMonitor()
	agent := newTestAgent(t, []string{docs}, completer, searcher, WithMaxAttempts(3))

	report, err := agent.Search(context.Background(), "lost file", WithMonitor(monitor))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhausted))
	require.NotNil(t, report)
	assert.Equal(t, core.OutcomeExhausted, report.Outcome)
	assert.Equal(t, 3, report.Attempts)
	assert.Empty(t, report.BestFile)
	assert.Empty(t, report.Candidates)
	assert.Equal(t, "a better query", report.FinalQuery)
	assert.Equal(t, 2, refinements)
	assert.Equal(t, []int{1, 2, 3}, monitor.starts)
	assert.Same(t, report, monitor.finished)
	assert.Len(t, searcher.NameCalls(), 3)
	assert.Len(t, searcher.ContentCalls(), 3)
}

func TestAgentRefinementRecovers(t *testing.T) {
	docs := t.TempDir()
	hit := filepath.Join(docs, "lease_agreement.pdf")
	completer := script{
		keywords: func(prompt string) (string, error) {
			if strings.Contains(prompt, "rental lease agreement") {
				return "lease, agreement", nil
			}
			return "apartment", nil
		},
		refine: answer("rental lease agreement"),
		rerank: answer(hit),
	}.completer()
	searcher := &stubSearcher{
		names: map[string][]string{"lease": {hit}},
	}
	agent := newTestAgent(t, []string{docs}, completer, searcher)

	report, err := agent.Search(context.Background(), "apartment contract")

	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempts)
	assert.Equal(t, "rental lease agreement", report.FinalQuery)
	assert.Equal(t, "apartment contract", report.Query)
	assert.Equal(t, hit, report.BestFile)
}

func TestAgentRefinementFailureSimplifiesQuery(t *testing.T) {
	docs := t.TempDir()
	completer := script{
		keywords: fail(errors.New("down")),
		refine:   fail(errors.New("down")),
	}.completer()
	agent := newTestAgent(t, []string{docs}, completer, &stubSearcher{}, WithMaxAttempts(2))

	report, err := agent.Search(context.Background(), "Where is the lease for my apartment?")

	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, "lease apartment", report.FinalQuery)
}

func TestAgentNarrowsEveryRoot(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	mkdirs(t, rootA, "Reports")
	mkdirs(t, rootB, "Invoices")

	completer := script{
		directory: firstListed,
		keywords:  answer("budget"),
		rerank:    answer("none of these"),
	}.completer()
	searcher := &stubSearcher{
		names: map[string][]string{
			filepath.Join(rootA, "Reports") + "|budget":  {"/x/budget_a.txt"},
			filepath.Join(rootB, "Invoices") + "|budget": {"/x/budget_b.txt"},
		},
	}
	monitor := newRecordingMonitor()
	agent := newTestAgent(t, []string{rootA, rootB}, completer, searcher, WithMinMatches(1))

	report, err := agent.Search(context.Background(), "budget", WithMonitor(monitor))

	require.NoError(t, err)
	assert.Equal(t, []string{"/x/budget_a.txt", "/x/budget_b.txt"}, report.Candidates)
	assert.Equal(t, "none of these", report.BestFile)
	require.Len(t, monitor.narrowed, 1)
	assert.ElementsMatch(t, []string{
		filepath.Join(rootA, "Reports"),
		filepath.Join(rootB, "Invoices"),
	}, monitor.narrowed[0])
	assert.Equal(t, []bool{false}, monitor.overridden)
}

func TestAgentOverrideWinsOverNarrowing(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "Finance", "Personal")
	finance := filepath.Join(root, "Finance")

	completer := script{
		directory: answer("Personal"),
		keywords: func(prompt string) (string, error) {
			if strings.Contains(prompt, "restrict") {
				return "", errors.New("override phrase leaked into keyword prompt")
			}
			return "tax return", nil
		},
		rerank: answer(filepath.Join(finance, "tax_return.pdf")),
	}.completer()
	searcher := &stubSearcher{
		names: map[string][]string{"tax_return": {filepath.Join(finance, "tax_return.pdf")}},
	}
	monitor := newRecordingMonitor()
	agent := newTestAgent(t, []string{root}, completer, searcher)

	report, err := agent.Search(context.Background(), "tax return, restrict searches to finance", WithMonitor(monitor))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(finance, "tax_return.pdf"), report.BestFile)
	assert.Equal(t, []bool{true}, monitor.overridden)
	assert.Empty(t, monitor.steps, "narrowing must not run")
	for _, call := range searcher.NameCalls() {
		assert.True(t, strings.HasPrefix(call, finance+"|"), call)
	}
	for _, prompt := range completer.Prompts() {
		assert.NotContains(t, prompt, "Subdirectories:")
	}
}

func TestAgentUnresolvableOverrideFallsBackToNarrowing(t *testing.T) {
	root := t.TempDir()
	completer := script{
		keywords: answer("plan"),
		rerank:   answer("/x/plan.md"),
	}.completer()
	searcher := &stubSearcher{names: map[string][]string{"plan": {"/x/plan.md"}}}
	monitor := newRecordingMonitor()
	agent := newTestAgent(t, []string{root}, completer, searcher, WithMinMatches(1))

	_, err := agent.Search(context.Background(), "plan, only search in Nowhere", WithMonitor(monitor))

	require.NoError(t, err)
	assert.Equal(t, []bool{false}, monitor.overridden)
	assert.Equal(t, []string{root + "|plan"}, searcher.NameCalls())
}

func TestAgentFilteringAndLimits(t *testing.T) {
	docs := t.TempDir()
	paths := []string{"/d/2023/one.txt", "/d/2024/two.txt", "/d/2024/three.txt"}
	newAgent := func(t *testing.T) (*Agent, *recordingMonitor) {
		completer := script{
			keywords: answer("alpha, beta"),
			rerank:   answer("/d/2024/two.txt"),
		}.completer()
		searcher := &stubSearcher{names: map[string][]string{"alpha": paths}}
		return newTestAgent(t, []string{docs}, completer, searcher), newRecordingMonitor()
	}

	t.Run("relevance filter falls back instead of emptying", func(t *testing.T) {
		agent, monitor := newAgent(t)
		report, err := agent.Search(context.Background(), "alpha beta", WithMonitor(monitor))
		require.NoError(t, err)
		assert.Equal(t, []string{"/d/2023/one.txt", "/d/2024/three.txt", "/d/2024/two.txt"}, report.Candidates)
		assert.Equal(t, []bool{true}, monitor.fellBack)
	})

	t.Run("filter keyword and result limit", func(t *testing.T) {
		agent, _ := newAgent(t)
		report, err := agent.Search(context.Background(), "alpha beta",
			WithFilterKeyword("2024"), WithResultLimit(1))
		require.NoError(t, err)
		assert.Equal(t, []string{"/d/2024/three.txt"}, report.Candidates)
	})
}

func TestAgentFilterKeywordWithoutMatchesRefines(t *testing.T) {
	docs := t.TempDir()
	old := filepath.Join(docs, "budget_2023.xlsx")
	current := filepath.Join(docs, "budget_2024.xlsx")
	refinements := 0
	completer := script{
		keywords: func(prompt string) (string, error) {
			if strings.Contains(prompt, "latest budget spreadsheet") {
				return "budget_2024", nil
			}
			return "budget", nil
		},
		refine: func(string) (string, error) {
			refinements++
			return "latest budget spreadsheet", nil
		},
		rerank: answer(current),
	}.completer()
	searcher := &stubSearcher{names: map[string][]string{
		"budget":      {old},
		"budget_2024": {current},
	}}
	agent := newTestAgent(t, []string{docs}, completer, searcher, WithMinMatches(1))

	t.Run("refines until a path contains the keyword", func(t *testing.T) {
		report, err := agent.Search(context.Background(), "budget", WithFilterKeyword("2024"))
		require.NoError(t, err)
		assert.Equal(t, 2, report.Attempts)
		assert.Equal(t, []string{current}, report.Candidates)
		assert.Equal(t, 1, refinements)
	})

	t.Run("never returns paths without the keyword", func(t *testing.T) {
		report, err := agent.Search(context.Background(), "budget", WithFilterKeyword("2031"))
		assert.True(t, errors.Is(err, ErrExhausted))
		assert.Empty(t, report.Candidates)
		assert.NotContains(t, report.Candidates, old)
	})
}

func TestAgentRejectsEmptyQuery(t *testing.T) {
	agent := newTestAgent(t, []string{t.TempDir()}, mock.NewMockCompleter("x"), &stubSearcher{})

	_, err := agent.Search(context.Background(), "   ")

	assert.True(t, errors.Is(err, core.ErrInvalidQuery))
}

func TestAgentHonorsCancellation(t *testing.T) {
	agent := newTestAgent(t, []string{t.TempDir()}, mock.NewMockCompleter("x"), &stubSearcher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agent.Search(ctx, "budget")

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSimplifyQuery(t *testing.T) {
	assert.Equal(t, "lease apartment", simplifyQuery("Where is the lease for my apartment?"))
	assert.Equal(t, "the", simplifyQuery("the"))
}
