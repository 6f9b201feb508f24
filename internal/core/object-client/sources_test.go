package objectclient

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/policyrag/internal/core"
)

func TestDirSource_ListsPDFsRecursively(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt", "hr/leave.pdf", "hr/old/2019.pdf"} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF "+name), 0o644))
	}

	src, err := NewDirSource(root)
	require.NoError(t, err)

	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.PDF", "b.pdf", "hr/leave.pdf", "hr/old/2019.pdf"}, names)

	doc, err := src.Read(context.Background(), "hr/leave.pdf")
	require.NoError(t, err)
	assert.Equal(t, "hr/leave.pdf", doc.Name)
	assert.Equal(t, filepath.Join(root, "hr", "leave.pdf"), doc.Path)
	assert.Equal(t, []byte("%PDF hr/leave.pdf"), doc.Data)
}

func TestDirSource_EmptyDirectory(t *testing.T) {
	src, err := NewDirSource(t.TempDir())
	require.NoError(t, err)

	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNewDirSource_MissingDirIsConfigurationError(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	file := filepath.Join(t.TempDir(), "file.pdf")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewDirSource(file)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

type fakeObjects struct {
	objects map[string][]byte
	listErr error
	bucket  string
	prefix  string
}

func (f *fakeObjects) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	f.objects[key] = data
	return "s3://" + bucket + "/" + key, nil
}

func (f *fakeObjects) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (f *fakeObjects) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	f.bucket, f.prefix = bucket, prefix
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestS3Source(t *testing.T) {
	objs := &fakeObjects{objects: map[string][]byte{
		"policies/z.pdf":     []byte("z"),
		"policies/a.pdf":     []byte("a"),
		"policies/readme.md": []byte("r"),
		"policies/sub/m.pdf": []byte("m"),
	}}
	src := NewS3Source(objs, "docs", "policies/")

	keys, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"policies/a.pdf", "policies/sub/m.pdf", "policies/z.pdf"}, keys)
	assert.Equal(t, "docs", objs.bucket)
	assert.Equal(t, "policies/", objs.prefix)

	doc, err := src.Read(context.Background(), "policies/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "policies/a.pdf", doc.Name)
	assert.Empty(t, doc.Path)
	assert.Equal(t, []byte("a"), doc.Data)

	_, err = src.Read(context.Background(), "policies/missing.pdf")
	assert.ErrorContains(t, err, "s3://docs/policies/missing.pdf")
}
