package prefixed

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/swapvm/internal/testing/fake"
)

func TestSnapshot_SetAndGet(t *testing.T) {
	base := fake.NewSnapshot()

	snapA := NewSnapshot("A", base)
	snapB := NewSnapshot("B", base)

	err := snapA.Set([]byte("key"), []byte("valueA"))
	require.NoError(t, err)

	err = snapB.Set([]byte("key"), []byte("valueB"))
	require.NoError(t, err)

	value, err := snapA.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("valueA"), value)

	value, err = snapB.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("valueB"), value)
}

func TestSnapshot_Delete(t *testing.T) {
	base := fake.NewSnapshot()

	snap := NewSnapshot("A", base)

	require.NoError(t, snap.Set([]byte("key"), []byte("value")))
	require.NoError(t, snap.Delete([]byte("key")))

	value, err := snap.Get([]byte("key"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestReadable_Get(t *testing.T) {
	base := fake.NewSnapshot()

	snap := NewSnapshot("A", base)
	require.NoError(t, snap.Set([]byte("key"), []byte("value")))

	r := NewReadable("A", base)

	value, err := r.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), value)
}

func TestNewPrefixedKey(t *testing.T) {
	// the (prefix, key) pair must be unambiguous
	k1 := NewPrefixedKey([]byte("ab"), []byte("c"))
	k2 := NewPrefixedKey([]byte("a"), []byte("bc"))

	require.Len(t, k1, 32)
	require.NotEqual(t, k1, k2)
}
