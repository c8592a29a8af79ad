package dupefind

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	f, err := os.Create(path)
	require.NoError(t, err)

	bufs := [][]byte{[]byte("alpha\n"), nil, []byte("beta\n"), {}, []byte("\n")}
	n, err := WriteVector(f, bufs)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\n\n", string(got))
	assert.Equal(t, len(got), n)
}

func TestWriteVector_ChunksPastIovMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	f, err := os.Create(path)
	require.NoError(t, err)

	var bufs [][]byte
	var want bytes.Buffer
	for i := 0; i < iovMax*2+7; i++ {
		line := []byte{byte('a' + i%26), '\n'}
		bufs = append(bufs, line)
		want.Write(line)
	}

	n, err := WriteVector(f, bufs)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, want.Len(), n)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), got)
}
