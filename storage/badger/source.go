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
package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/storage"
)

// SourceRepository implements storage.SourceRepository for BadgerDB.
type SourceRepository struct {
	backend *Backend
}

var _ storage.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(backend *Backend) storage.SourceRepository {
	return &SourceRepository{
		backend: backend,
	}
}

// SaveSource persists the indexing state of a source.
func (r *SourceRepository) SaveSource(ctx context.Context, state *core.SourceState) error {
	if state == nil || state.Source == "" {
		return core.ErrEmptySource
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if state.IndexedAt.IsZero() {
			state.IndexedAt = time.Now().UTC()
		}
		if err := tx.Set(makeSourceKey(state.Source), storage.MarshalSourceState(state)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadSource retrieves the indexing state of a source.
// Returns nil, nil if the source has never been indexed.
func (r *SourceRepository) LoadSource(ctx context.Context, source string) (*core.SourceState, error) {
	var state *core.SourceState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSourceKey(source))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalSourceState(val)
			return unmarshalErr
		})
	}, false)

	return state, err
}

// DeleteSource forgets a source.
func (r *SourceRepository) DeleteSource(ctx context.Context, source string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeSourceKey(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListSources returns every recorded source ordered by path.
func (r *SourceRepository) ListSources(ctx context.Context) ([]*core.SourceState, error) {
	var states []*core.SourceState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sourcePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var state *core.SourceState
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				state, err = storage.UnmarshalSourceState(val)
				return err
			}); err != nil {
				return err
			}
			states = append(states, state)
		}
		return nil
	}, false)
	return states, err
}
