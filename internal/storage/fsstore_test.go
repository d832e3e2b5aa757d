package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutStatGet(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()
	content := "hello object store"

	info, err := store.Put(ctx, "bucket", "prefix/file.jsonl.gz", strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	sum := md5.Sum([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), info.ETag)
	assert.Equal(t, int64(len(content)), info.Size)

	stat, err := store.Stat(ctx, "bucket", "prefix/file.jsonl.gz")
	require.NoError(t, err)
	assert.Equal(t, info.ETag, stat.ETag)

	rc, err := store.Get(ctx, "bucket", "prefix/file.jsonl.gz")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestFSStore_StatMissingIsTaggedNotFound(t *testing.T) {
	store := NewFSStore(t.TempDir())

	_, err := store.Stat(context.Background(), "bucket", "absent")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRetryable(err))
}

func TestFSStore_GetMissingIsTaggedNotFound(t *testing.T) {
	store := NewFSStore(t.TempDir())

	_, err := store.Get(context.Background(), "bucket", "absent")

	assert.True(t, IsNotFound(err))
}

func TestFSStore_PutDirectoryFailureIsInternal(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	// An existing object at "run" blocks creating "run/" as a directory.
	_, err := store.Put(ctx, "bucket", "run", strings.NewReader("x"), 1)
	require.NoError(t, err)

	_, err = store.Put(ctx, "bucket", "run/file.jsonl.gz", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.False(t, IsRetryable(err))
}

func TestFSStore_ListFiltersAndSorts(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"run/b.jsonl.gz", "run/a.jsonl.gz", "other/c.jsonl.gz"} {
		_, err := store.Put(ctx, "bucket", key, strings.NewReader("x"), 1)
		require.NoError(t, err)
	}

	infos, err := store.List(ctx, "bucket", "run/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "run/a.jsonl.gz", infos[0].Key)
	assert.Equal(t, "run/b.jsonl.gz", infos[1].Key)
}

func TestFSStore_ListEmptyBucket(t *testing.T) {
	store := NewFSStore(t.TempDir())

	infos, err := store.List(context.Background(), "nothing-here", "")

	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("s3://my-bucket/path/to/file.jsonl.gz")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", loc.Bucket)
	assert.Equal(t, "path/to/file.jsonl.gz", loc.Key)
	assert.Equal(t, "s3://my-bucket/path/to/file.jsonl.gz", loc.String())

	_, err = ParseLocation("/local/path")
	assert.Error(t, err)

	_, err = ParseLocation("s3:///missing-bucket")
	assert.Error(t, err)
}

func TestErrorTagging(t *testing.T) {
	err := wrapError(CodeTransient, true, io.ErrUnexpectedEOF)

	assert.Equal(t, CodeTransient, CodeOf(err))
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Equal(t, CodeInternal, CodeOf(io.EOF))
	assert.False(t, IsRetryable(io.EOF))
}
