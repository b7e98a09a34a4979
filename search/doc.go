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
// Package search finds the files most likely to answer a free-text query.
//
// The Agent type runs a multi-stage pipeline:
//   - Directory narrowing: each root is descended one level at a time, the
//     model choosing the most relevant subdirectory, up to a depth bound
//   - Keyword generation: the model proposes keywords, multi-word keywords
//     gain underscore and hyphen variants
//   - Dual-channel search: file names first, file contents only when names
//     produce fewer hits than a threshold
//   - Relevance filtering on path text, never emptying a non-empty list
//   - Re-ranking: the model names the single best file
//
// When an attempt finds nothing the query is rewritten by the model and the
// pipeline restarts, up to a bounded number of attempts. Phrases such as
// "restrict searches to Finance, Taxes" or "only search in Projects" bypass
// narrowing and take precedence over model-chosen directories.
//
// Every model call degrades instead of failing, and each degradation is
// reported as a core.Outcome to an optional SearchMonitor.
package search
