// Package prefixed implements a store view whose keys are transparently
// namespaced by a prefix.
//
// The host uses one prefix per contract instance so that a contract can only
// ever touch its own records, and distinct prefixes for its own bookkeeping.
// Keys are hashed with the length-prefixed prefix so that two different
// prefixes can never produce the same underlying key.
package prefixed

import (
	"crypto/sha256"
	"encoding/binary"

	"go.dedis.ch/swapvm/core/store"
)

type readable struct {
	store.Readable
	prefix []byte
}

type writable struct {
	store.Writable
	prefix []byte
}

type snapshot struct {
	*writable
	*readable
}

// NewSnapshot creates a snapshot that namespaces every key with the prefix.
func NewSnapshot(prefix string, snap store.Snapshot) store.Snapshot {
	p := []byte(prefix)

	return &snapshot{
		&writable{snap, p},
		&readable{snap, p},
	}
}

// NewReadable creates a read-only view that namespaces every key with the
// prefix.
func NewReadable(prefix string, r store.Readable) store.Readable {
	return &readable{r, []byte(prefix)}
}

// Get implements store.Readable. It reads the namespaced key.
func (s *readable) Get(key []byte) ([]byte, error) {
	return s.Readable.Get(NewPrefixedKey(s.prefix, key))
}

// Set implements store.Writable. It writes the namespaced key.
func (s *writable) Set(key []byte, value []byte) error {
	return s.Writable.Set(NewPrefixedKey(s.prefix, key), value)
}

// Delete implements store.Writable. It deletes the namespaced key.
func (s *writable) Delete(key []byte) error {
	return s.Writable.Delete(NewPrefixedKey(s.prefix, key))
}

// NewPrefixedKey creates a 256-bit key from a prefix and a base key. The
// prefix and the key are both length-prefixed before hashing so that the pair
// is unambiguous.
func NewPrefixedKey(prefix, key []byte) []byte {
	h := sha256.New()

	length := make([]byte, 2)
	binary.LittleEndian.PutUint16(length, uint16(len(prefix)))

	h.Write(length)
	h.Write(prefix)

	binary.LittleEndian.PutUint16(length, uint16(len(key)))

	h.Write(length)
	h.Write(key)

	return h.Sum(nil)
}
