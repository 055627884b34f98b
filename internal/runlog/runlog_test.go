package runlog

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	f, err := OpenAppend(dir, "run.log")
	require.NoError(t, err)
	_, err = f.WriteString("baris pertama\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Reopening appends, never truncates.
	f, err = OpenAppend(dir, "run.log")
	require.NoError(t, err)
	_, err = f.WriteString("baris kedua\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(dir, "run.log"))
	require.NoError(t, err)
	assert.Equal(t, "baris pertama\nbaris kedua\n", string(data))
}

func TestNewLoggerWritesStampedLines(t *testing.T) {
	dir := t.TempDir()

	logger, closeFn := NewLogger(dir)
	logger.Printf("halo %s", "dunia")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, "run.log"))
	require.NoError(t, err)

	stamped := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} WIB\] halo dunia\n$`)
	assert.Regexp(t, stamped, string(data))
}

func TestDefaultDir(t *testing.T) {
	assert.NotEmpty(t, DefaultDir())
	assert.Contains(t, DefaultDir(), "cuaca_logs")
}
