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
// Package storage provides the storage abstraction layer for fileoracle.
//
// This package defines repository interfaces that decouple the retrieval
// index from the ingestion and answering code. The badger subpackage is the
// only backend.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces:
//
//	chunks, err := badger.NewChunkRepository(backend)  // storage.ChunkRepository
//
// Internal constructors may return concrete types.
//
// # Architecture
//
//   - Repository: similarity search and transactions shared by all repositories
//   - ChunkRepository: text chunks and their embedding vectors
//   - SourceRepository: per-source indexing state used to skip unchanged files
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	chunks, sources, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
