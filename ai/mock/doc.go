// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Completer, ai.Embedder and
// ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
// All mocks are safe for concurrent use because the search agent fans calls
// out across a worker pool.
//
// # Usage in Tests
//
//	// Canned responses, returned in order and then repeated from the start
//	completer := mock.NewMockCompleter("budget, projections, Q4")
//
//	// Custom behavior injection
//	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
//	    if strings.Contains(prompt, "subdirectories") {
//	        return "Invoices", nil
//	    }
//	    return "", errors.New("unavailable")
//	}
//
//	// Check call counts and prompts
//	count := completer.CallCount()
//	prompts := completer.Prompts()
//
// # Default Behavior
//
//   - MockCompleter: cycles through its canned responses; errors when it has none
//   - MockEmbedder: returns deterministic vectors based on text hash
//   - MockProvider: aggregates mock completer and embedder
package mock
