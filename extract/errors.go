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
package extract

import "errors"

var (
	// ErrUnsupported is returned for references whose format has no extractor.
	// Callers skip such files.
	ErrUnsupported = errors.New("unsupported document format")

	// ErrTooLarge is returned when a file exceeds the configured size limit.
	ErrTooLarge = errors.New("document exceeds size limit")

	// ErrFetchFailed is returned when a remote document could not be downloaded.
	ErrFetchFailed = errors.New("document fetch failed")

	// ErrMalformed is returned when a document's container format cannot be read.
	ErrMalformed = errors.New("malformed document")
)
