package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestBoltDB_UpdateAndView(t *testing.T) {
	db, clean := makeDB(t)
	defer clean()

	err := db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		return bucket.Set([]byte("ping"), []byte("pong"))
	})
	require.NoError(t, err)

	err = db.View(func(tx ReadableTx) error {
		bucket := tx.GetBucket([]byte("bucket"))
		require.NotNil(t, bucket)

		value := bucket.Get([]byte("ping"))
		require.Equal(t, []byte("pong"), value)

		value = bucket.Get([]byte("pong"))
		require.Nil(t, value)

		return nil
	})
	require.NoError(t, err)

	err = db.View(func(tx ReadableTx) error {
		require.Nil(t, tx.GetBucket([]byte("unknown")))

		return nil
	})
	require.NoError(t, err)

	err = db.Update(func(tx WritableTx) error {
		_, err := tx.GetBucketOrCreate(nil)
		require.EqualError(t, err, "failed to create bucket: bucket name required")

		return nil
	})
	require.NoError(t, err)
}

func TestBoltDB_Abort(t *testing.T) {
	db, clean := makeDB(t)
	defer clean()

	err := db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, bucket.Set([]byte("ping"), []byte("pong")))

		return xerrors.New("oops")
	})
	require.EqualError(t, err, "oops")

	err = db.View(func(tx ReadableTx) error {
		require.Nil(t, tx.GetBucket([]byte("bucket")))

		return nil
	})
	require.NoError(t, err)
}

func TestBoltTx_OnCommit(t *testing.T) {
	db, clean := makeDB(t)
	defer clean()

	called := false

	err := db.Update(func(tx WritableTx) error {
		tx.OnCommit(func() { called = true })

		_, err := tx.GetBucketOrCreate([]byte("bucket"))
		return err
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestBoltBucket_Delete_ForEach_Scan(t *testing.T) {
	db, clean := makeDB(t)
	defer clean()

	err := db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, bucket.Set([]byte{1}, []byte{1}))
		require.NoError(t, bucket.Set([]byte{2}, []byte{2}))
		require.NoError(t, bucket.Set([]byte{1, 1}, []byte{3}))

		var keys [][]byte
		err = bucket.ForEach(func(k, v []byte) error {
			keys = append(keys, append([]byte{}, k...))
			return nil
		})
		require.NoError(t, err)
		require.Len(t, keys, 3)

		keys = nil
		err = bucket.Scan([]byte{1}, func(k, v []byte) error {
			keys = append(keys, append([]byte{}, k...))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, [][]byte{{1}, {1, 1}}, keys)

		err = bucket.Scan(nil, func(k, v []byte) error {
			return xerrors.New("oops")
		})
		require.EqualError(t, err, "callback failed: oops")

		require.NoError(t, bucket.Delete([]byte{1}))
		require.Nil(t, bucket.Get([]byte{1}))

		return nil
	})
	require.NoError(t, err)
}

func TestBoltDB_New_BadPath(t *testing.T) {
	_, err := New(filepath.Join("\x00", "db"))
	require.Error(t, err)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeDB(t *testing.T) (DB, func()) {
	dir, err := os.MkdirTemp(os.TempDir(), "swapvm-core-kv")
	require.NoError(t, err)

	db, err := New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	return db, func() {
		db.Close()
		os.RemoveAll(dir)
	}
}
