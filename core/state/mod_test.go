package state

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/swapvm/internal/testing/fake"
	"golang.org/x/xerrors"
)

type record struct {
	Owner string `json:"owner"`
	Price uint64 `json:"price"`
}

func TestStore_Load(t *testing.T) {
	store := NewStore[record]("test:state")

	snap := fake.NewSnapshot()

	_, err := store.Load(snap)
	require.ErrorIs(t, err, ErrNotFound)

	err = store.Save(snap, record{Owner: "alice", Price: 10})
	require.NoError(t, err)

	value, err := store.Load(snap)
	require.NoError(t, err)
	require.Equal(t, record{Owner: "alice", Price: 10}, value)

	_, err = store.Load(fake.NewBadSnapshot())
	require.EqualError(t, err, fake.Err("failed to read record"))

	require.NoError(t, snap.Set([]byte("test:state"), []byte("{garbage")))

	_, err = store.Load(snap)
	require.Regexp(t, "^failed to decode record", err.Error())
}

func TestStore_Save(t *testing.T) {
	store := NewStore[record]("test:state")

	err := store.Save(fake.NewBadSnapshot(), record{})
	require.EqualError(t, err, fake.Err("failed to write record"))
}

func TestStore_Update(t *testing.T) {
	store := NewStore[record]("test:state")

	snap := fake.NewSnapshot()

	_, err := store.Update(snap, func(r record) (record, error) {
		return r, nil
	})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(snap, record{Owner: "alice", Price: 10}))

	value, err := store.Update(snap, func(r record) (record, error) {
		r.Price = 20
		return r, nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(20), value.Price)

	value, err = store.Load(snap)
	require.NoError(t, err)
	require.Equal(t, uint64(20), value.Price)

	// the mutator's error is propagated as is, and nothing is written
	_, err = store.Update(snap, func(r record) (record, error) {
		return record{}, xerrors.New("refused")
	})
	require.EqualError(t, err, "refused")

	value, err = store.Load(snap)
	require.NoError(t, err)
	require.Equal(t, record{Owner: "alice", Price: 20}, value)
}
