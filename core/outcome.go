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
package core

// Outcome tags the result of a component call so callers can tell why a
// fallback was taken.
type Outcome int

const (
	// OutcomeOK means the call produced a usable value.
	OutcomeOK Outcome = iota
	// OutcomeTimedOut means the call exceeded its deadline.
	OutcomeTimedOut
	// OutcomeServiceError means the external service or tool failed.
	OutcomeServiceError
	// OutcomeEmpty means the call succeeded but produced nothing usable.
	OutcomeEmpty
	// OutcomeNotFound means a requested path or directory was unavailable.
	OutcomeNotFound
	// OutcomeExhausted means the retry bound was reached without results.
	OutcomeExhausted
)

var outcomeNames = map[Outcome]string{
	OutcomeOK:           "ok",
	OutcomeTimedOut:     "timed_out",
	OutcomeServiceError: "service_error",
	OutcomeEmpty:        "empty",
	OutcomeNotFound:     "not_found",
	OutcomeExhausted:    "exhausted",
}

// String returns the snake_case name of the outcome.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// OK reports whether the outcome is OutcomeOK.
func (o Outcome) OK() bool {
	return o == OutcomeOK
}
