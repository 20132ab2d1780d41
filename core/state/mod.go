// Package state implements a strongly typed single-record store on top of a
// key/value snapshot.
//
// Each contract persists exactly one record. The record is serialized with
// JSON so that its layout stays readable and stable across versions of the
// binary.
package state

import (
	"encoding/json"

	"go.dedis.ch/swapvm/core/store"
	"golang.org/x/xerrors"
)

// ErrNotFound is returned when the record has never been saved.
var ErrNotFound = xerrors.New("record not found")

// Store reads and writes a single record of type T under a fixed key.
type Store[T any] struct {
	key []byte
}

// NewStore creates a store for a record of type T saved under the given key.
func NewStore[T any](key string) Store[T] {
	return Store[T]{key: []byte(key)}
}

// Load returns the current record, or ErrNotFound if it was never saved.
func (s Store[T]) Load(r store.Readable) (T, error) {
	var record T

	buffer, err := r.Get(s.key)
	if err != nil {
		return record, xerrors.Errorf("failed to read record: %v", err)
	}

	if buffer == nil {
		return record, ErrNotFound
	}

	err = json.Unmarshal(buffer, &record)
	if err != nil {
		return record, xerrors.Errorf("failed to decode record: %v", err)
	}

	return record, nil
}

// Save overwrites the record.
func (s Store[T]) Save(w store.Writable, record T) error {
	buffer, err := json.Marshal(record)
	if err != nil {
		return xerrors.Errorf("failed to encode record: %v", err)
	}

	err = w.Set(s.key, buffer)
	if err != nil {
		return xerrors.Errorf("failed to write record: %v", err)
	}

	return nil
}

// Update loads the current record and applies the mutator on it. The new
// record is saved only when the mutator succeeds, otherwise nothing is
// written and the mutator's error is returned as is.
func (s Store[T]) Update(snap store.Snapshot, fn func(T) (T, error)) (T, error) {
	record, err := s.Load(snap)
	if err != nil {
		return record, err
	}

	record, err = fn(record)
	if err != nil {
		return record, err
	}

	err = s.Save(snap, record)
	if err != nil {
		return record, err
	}

	return record, nil
}
