package awfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "aw_00000300.json", `{"info": {"id": 300}}`)
	writeDoc(t, dir, "aw_00000002.json", `{"info": {"id": 2}}`)
	writeDoc(t, dir, "aw_00001000.json", `{"info": {"id": 1000}}`)
	writeDoc(t, dir, "notes.txt", "ignore me")

	docs, err := NewSource(dir).LoadAll(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "aw_00000002.json", docs[0].Name)
	assert.Equal(t, "aw_00000300.json", docs[1].Name)
	assert.Equal(t, "aw_00001000.json", docs[2].Name)
	assert.JSONEq(t, `{"info": {"id": 2}}`, string(docs[0].Data))
}

func TestLoadAllEmptyDirectory(t *testing.T) {
	docs, err := NewSource(t.TempDir()).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadAllMissingDirectory(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "nope")).LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data dir")
}

func TestLoadAllHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		writeDoc(t, dir, fmt.Sprintf("aw_%08d.json", i), `{}`)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(dir).LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
