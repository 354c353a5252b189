package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

type fakeStore struct {
	objects map[string][]byte
	delay   time.Duration
}

func (s *fakeStore) GetObject(ctx context.Context, bucket, key string, maxSize int64) ([]byte, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("The specified key does not exist.")
	}
	if int64(len(b)) > maxSize {
		return nil, tooLarge(maxSize)
	}
	return b, nil
}

func (s *fakeStore) StatObject(_ context.Context, bucket, key string) (ObjectInfo, error) {
	b, ok := s.objects[bucket+"/"+key]
	if !ok {
		return ObjectInfo{}, errors.New("The specified key does not exist.")
	}
	return ObjectInfo{Size: int64(len(b)), ContentType: "text/plain"}, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestFileReader_ReadFullText(t *testing.T) {
	p := writeFile(t, "run.txt", []byte("line one\nline two"))
	r := NewFileReader(Options{})

	text, err := r.ReadFullText(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)

	fd, err := r.Stat(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "run.txt", fd.Name)
	assert.Equal(t, int64(17), fd.Size)
}

func TestFileReader_InvalidUTF8Replaced(t *testing.T) {
	p := writeFile(t, "run.log", []byte("T\xe9l\xe9d\xe9marche"))
	text, err := NewFileReader(Options{}).ReadFullText(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "T�l�d�marche", text)
}

func TestFileReader_Errors(t *testing.T) {
	r := NewFileReader(Options{MaxSize: 4})

	_, err := r.ReadFullText(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "failed to read")

	p := writeFile(t, "big.txt", []byte("0123456789"))
	_, err = r.ReadFullText(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRead)
	assert.ErrorIs(t, err, errTooLarge)

	_, err = r.Stat(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, common.ErrRead)
}

func TestObjectReader(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"logs/2024/run.txt": []byte("hello")}}
	r := NewObjectReader(store, Options{})

	text, err := r.ReadFullText(context.Background(), "s3://logs/2024/run.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	fd, err := r.Stat(context.Background(), "s3://logs/2024/run.txt")
	require.NoError(t, err)
	assert.Equal(t, "run.txt", fd.Name)
	assert.Equal(t, int64(5), fd.Size)

	_, err = r.ReadFullText(context.Background(), "s3://logs/missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRead)
	assert.Contains(t, err.Error(), "The specified key does not exist.")

	_, err = r.ReadFullText(context.Background(), "s3://logs")
	assert.ErrorIs(t, err, common.ErrRead)
}

func TestObjectReader_Timeout(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"b/k.txt": []byte("x")}, delay: time.Second}
	r := NewObjectReader(store, Options{Timeout: 20 * time.Millisecond})

	_, err := r.ReadFullText(context.Background(), "s3://b/k.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrReadTimeout)
	assert.NotErrorIs(t, err, common.ErrRead)
}

func TestParseObjectURI(t *testing.T) {
	bucket, key, err := ParseObjectURI("s3://bucket/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "a/b.txt", key)

	for _, bad := range []string{"bucket/a", "s3://", "s3://bucket", "s3://bucket/"} {
		_, _, err := ParseObjectURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestMuxReader(t *testing.T) {
	p := writeFile(t, "run.txt", []byte("local"))
	store := &fakeStore{objects: map[string][]byte{"b/k.txt": []byte("remote")}}

	m := NewMuxReader(NewFileReader(Options{}), NewObjectReader(store, Options{}))
	text, err := m.ReadFullText(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "local", text)
	text, err = m.ReadFullText(context.Background(), "s3://b/k.txt")
	require.NoError(t, err)
	assert.Equal(t, "remote", text)

	noObjects := NewMuxReader(NewFileReader(Options{}), nil)
	_, err = noObjects.ReadFullText(context.Background(), "s3://b/k.txt")
	assert.ErrorIs(t, err, common.ErrRead)
	_, err = noObjects.Stat(context.Background(), "s3://b/k.txt")
	assert.ErrorIs(t, err, common.ErrRead)
}
