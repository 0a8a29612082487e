package sovdev

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func TestRotatingWriterAppends(t *testing.T) {
	dir := t.TempDir()
	w := newRotatingWriter(filepath.Join(dir, "dev.log"), 0, 0)
	defer w.close()

	require.NoError(t, w.writeLine([]byte("one")))
	require.NoError(t, w.writeLine([]byte("two")))

	assert.Equal(t, []string{"one", "two"}, readLines(t, filepath.Join(dir, "dev.log")))
}

func TestRotatingWriterRotatesAtThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.log")
	w := newRotatingWriter(path, 10, 3)
	defer w.close()

	// 8 bytes each with the newline; the second write crosses the threshold.
	require.NoError(t, w.writeLine([]byte("aaaaaaa")))
	require.NoError(t, w.writeLine([]byte("bbbbbbb")))

	assert.Equal(t, []string{"bbbbbbb"}, readLines(t, path))
	assert.Equal(t, []string{"aaaaaaa"}, readLines(t, path+".1"))
}

func TestRotatingWriterShiftsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.log")
	w := newRotatingWriter(path, 10, 2)
	defer w.close()

	for _, line := range []string{"1111111", "2222222", "3333333", "4444444"} {
		require.NoError(t, w.writeLine([]byte(line)))
	}

	assert.Equal(t, []string{"4444444"}, readLines(t, path))
	assert.Equal(t, []string{"3333333"}, readLines(t, path+".1"))
	assert.Equal(t, []string{"2222222"}, readLines(t, path+".2"))
	_, err := os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "oldest backup beyond the count is dropped")
}

func TestRotatingWriterNeverRotatesWhenUnbounded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.log")
	w := newRotatingWriter(path, 0, 5)
	defer w.close()

	big := strings.Repeat("x", 4096)
	for i := 0; i < 10; i++ {
		require.NoError(t, w.writeLine([]byte(big)))
	}

	assert.Len(t, readLines(t, path), 10)
	_, err := os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriterNeverSplitsARecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.log")
	w := newRotatingWriter(path, 10, 3)
	defer w.close()

	require.NoError(t, w.writeLine([]byte("aaaaaaa")))
	// Far larger than the threshold: rotates first, then lands whole.
	long := strings.Repeat("y", 50)
	require.NoError(t, w.writeLine([]byte(long)))

	assert.Equal(t, []string{long}, readLines(t, path))
}

func TestFileSinkRoutesErrorLevels(t *testing.T) {
	dir := t.TempDir()
	s := newFileSink(dir, 0, 0)
	defer s.close()

	s.write(LevelInfo, []byte(`{"level":"INFO"}`))
	s.write(LevelWarn, []byte(`{"level":"WARN"}`))
	s.write(LevelError, []byte(`{"level":"ERROR"}`))
	s.write(LevelFatal, []byte(`{"level":"FATAL"}`))

	assert.Len(t, readLines(t, filepath.Join(dir, "dev.log")), 4)
	assert.Equal(t,
		[]string{`{"level":"ERROR"}`, `{"level":"FATAL"}`},
		readLines(t, filepath.Join(dir, "error.log")))
}

func TestFileSinkAcceptsExplicitLogFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	s := newFileSink(path, 0, 0)
	defer s.close()

	s.write(LevelError, []byte("boom"))

	assert.Equal(t, []string{"boom"}, readLines(t, path))
	assert.Equal(t, []string{"boom"}, readLines(t, filepath.Join(dir, "error.log")))
}

func TestFileSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	s := newFileSink(dir, 0, 0)
	defer s.close()

	s.write(LevelInfo, []byte("hello"))

	assert.Equal(t, []string{"hello"}, readLines(t, filepath.Join(dir, "dev.log")))
}

func TestFileSinkSwallowsWriteFailures(t *testing.T) {
	logs := captureDiag(t)
	// A directory where the file should be makes the open fail.
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dev.log"), 0o755))

	s := newFileSink(dir, 0, 0)
	defer s.close()
	s.write(LevelInfo, []byte("hello"))

	assert.True(t, diagContains(logs, "Sovdev Logger failed"))
}
