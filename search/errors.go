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
package search

import "errors"

var (
	// ErrCompleterRequired is returned when a completion service is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrSearcherRequired is returned when a file searcher is not provided.
	ErrSearcherRequired = errors.New("file searcher required")

	// ErrNoRoots is returned when the agent is configured without root directories.
	ErrNoRoots = errors.New("at least one root directory required")

	// ErrExhausted is returned when every attempt, including refinements, produced no candidates.
	ErrExhausted = errors.New("search exhausted")
)
