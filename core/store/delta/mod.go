// Package delta implements a staging snapshot that buffers writes in memory
// on top of a read-only base.
//
// The host opens one staging snapshot per invocation. If the invocation
// succeeds, the buffered writes are replayed onto the durable store in a
// single transaction, otherwise the snapshot is simply dropped and the
// committed state is left untouched.
package delta

import (
	"go.dedis.ch/swapvm/core/store"
	"golang.org/x/xerrors"
)

// Snapshot is a write buffer on top of a readable base store.
//
// - implements store.Snapshot
type Snapshot struct {
	base    store.Readable
	upserts map[string][]byte
	deletes map[string]struct{}
}

// New creates a new staging snapshot reading through to the base.
func New(base store.Readable) *Snapshot {
	return &Snapshot{
		base:    base,
		upserts: make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// Get implements store.Readable. It returns the buffered value if the key has
// been written during this invocation, otherwise the value from the base.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if _, found := s.deletes[string(key)]; found {
		return nil, nil
	}

	value, found := s.upserts[string(key)]
	if found {
		return value, nil
	}

	value, err := s.base.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("failed to read base: %v", err)
	}

	return value, nil
}

// Set implements store.Writable. It buffers the write.
func (s *Snapshot) Set(key, value []byte) error {
	delete(s.deletes, string(key))
	s.upserts[string(key)] = value

	return nil
}

// Delete implements store.Writable. It buffers the deletion.
func (s *Snapshot) Delete(key []byte) error {
	delete(s.upserts, string(key))
	s.deletes[string(key)] = struct{}{}

	return nil
}

// Commit replays the buffered writes onto the writable store. The snapshot
// must not be used afterwards.
func (s *Snapshot) Commit(w store.Writable) error {
	for key, value := range s.upserts {
		err := w.Set([]byte(key), value)
		if err != nil {
			return xerrors.Errorf("failed to write key: %v", err)
		}
	}

	for key := range s.deletes {
		err := w.Delete([]byte(key))
		if err != nil {
			return xerrors.Errorf("failed to delete key: %v", err)
		}
	}

	return nil
}
