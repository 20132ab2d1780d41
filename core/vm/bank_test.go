package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestBank_Deposit(t *testing.T) {
	bank := newBank(newMapSnapshot())

	err := bank.deposit("alice", []Coin{NewCoin(1000, "uluna")})
	require.NoError(t, err)

	value, err := bank.balance("alice", "uluna")
	require.NoError(t, err)
	require.Equal(t, uint64(1000), value)

	err = bank.deposit("alice", []Coin{NewCoin(500, "uluna"), NewCoin(3, "uatom")})
	require.NoError(t, err)

	value, err = bank.balance("alice", "uluna")
	require.NoError(t, err)
	require.Equal(t, uint64(1500), value)

	value, err = bank.balance("alice", "uatom")
	require.NoError(t, err)
	require.Equal(t, uint64(3), value)

	err = bank.deposit("alice", []Coin{NewCoin(math.MaxUint64, "uluna")})
	require.EqualError(t, err, "balance overflow for 'alice'")
}

func TestBank_Move(t *testing.T) {
	bank := newBank(newMapSnapshot())

	require.NoError(t, bank.deposit("alice", []Coin{NewCoin(1000, "uluna")}))

	err := bank.move("alice", "bob", []Coin{NewCoin(400, "uluna")})
	require.NoError(t, err)

	value, err := bank.balance("alice", "uluna")
	require.NoError(t, err)
	require.Equal(t, uint64(600), value)

	value, err = bank.balance("bob", "uluna")
	require.NoError(t, err)
	require.Equal(t, uint64(400), value)

	err = bank.move("alice", "bob", []Coin{NewCoin(601, "uluna")})
	require.True(t, xerrors.Is(err, ErrInsufficientFunds))
}

func TestBank_BadRecord(t *testing.T) {
	snap := newMapSnapshot()
	require.NoError(t, snap.Set(balanceKey("alice", "uluna"), []byte("garbage")))

	bank := newBank(snap)

	_, err := bank.balance("alice", "uluna")
	require.Regexp(t, "^failed to decode balance", err.Error())
}

// -----------------------------------------------------------------------------
// Utility functions

// mapSnapshot is a trivial in-memory snapshot for the tests of this package.
//
// - implements store.Snapshot
type mapSnapshot struct {
	values map[string][]byte
}

func newMapSnapshot() *mapSnapshot {
	return &mapSnapshot{values: make(map[string][]byte)}
}

func (snap *mapSnapshot) Get(key []byte) ([]byte, error) {
	return snap.values[string(key)], nil
}

func (snap *mapSnapshot) Set(key, value []byte) error {
	snap.values[string(key)] = value

	return nil
}

func (snap *mapSnapshot) Delete(key []byte) error {
	delete(snap.values, string(key))

	return nil
}
