// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package ai provides abstractions for the AI services used by FileOracle.
//
// Two capabilities are modelled: text completion, which drives every LLM
// decision in the search pipeline and composes the final answer, and text
// embedding, which feeds the retrieval index. The search, ingestion and
// answering packages depend on these interfaces rather than on a concrete
// client.
//
// # Interfaces
//
//   - Completer: returns best-effort text for a prompt
//   - Embedder: generates vector embeddings from text
//   - AIProvider: aggregates both for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation over OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewCompleter,
// openai.NewEmbedder) return INTERFACE types so callers cannot couple to the
// concrete client.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Mock constructors return CONCRETE types so tests can inject behavior and
// assert on call counts.
//
//	completer := mock.NewMockCompleter("budget, projections")
//	count := completer.CallCount()
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	text, err := provider.Completer().Complete(ctx, "Say hello")
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
package ai
