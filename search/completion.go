package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
)

// timeoutCompleter bounds every completion call with a fixed timeout.
type timeoutCompleter struct {
	completer ai.Completer
	timeout   time.Duration
}

func withCallTimeout(completer ai.Completer, timeout time.Duration) ai.Completer {
	if timeout <= 0 {
		return completer
	}
	return &timeoutCompleter{completer: completer, timeout: timeout}
}

func (t *timeoutCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.completer.Complete(ctx, prompt)
}

// outcomeOf classifies a completion failure.
func outcomeOf(err error) core.Outcome {
	switch {
	case err == nil:
		return core.OutcomeOK
	case errors.Is(err, context.DeadlineExceeded):
		return core.OutcomeTimedOut
	case errors.Is(err, ai.ErrEmptyResponse):
		return core.OutcomeEmpty
	default:
		return core.OutcomeServiceError
	}
}

// cleanChoice trims whitespace and surrounding quotes or backticks from a single-value answer.
func cleanChoice(response string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(response), "\"'`"))
}
