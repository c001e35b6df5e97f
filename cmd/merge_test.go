package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMergeInput(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, size int) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
		return path
	}

	assert.NoError(t, validateMergeInput(write("doc.pdf", 8), 16))
	assert.NoError(t, validateMergeInput(write("UPPER.PDF", 8), 16))

	assert.ErrorContains(t, validateMergeInput(write("notes.txt", 8), 16), "unsupported input format")
	assert.ErrorContains(t, validateMergeInput(write("scan.png", 8), 16), "unsupported input format")
	assert.ErrorContains(t, validateMergeInput(write("big.pdf", 32), 16), "size limit")
	assert.ErrorContains(t, validateMergeInput(filepath.Join(dir, "missing.pdf"), 16), "does not exist")
	assert.ErrorContains(t, validateMergeInput(dir, 16), "directory")
}
