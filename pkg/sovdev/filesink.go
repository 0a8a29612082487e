package sovdev

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// rotatingWriter is a size-rotated append-only writer with numbered backups
// (name.1 is the most recent). A non-positive maxBytes or backup count means
// the writer never rotates and appends indefinitely.
type rotatingWriter struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	backups  int

	file *os.File
	size int64
}

func newRotatingWriter(path string, maxBytes int64, backups int) *rotatingWriter {
	return &rotatingWriter{path: path, maxBytes: maxBytes, backups: backups}
}

// writeLine appends one line, rotating first when the write would push the
// file past the threshold. The mutex keeps lines from interleaving.
func (w *rotatingWriter) writeLine(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.open(); err != nil {
			return err
		}
	}

	if w.shouldRotate(int64(len(line)) + 1) {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	n, err := w.file.Write(append(line, '\n'))
	w.size += int64(n)
	return err
}

func (w *rotatingWriter) shouldRotate(incoming int64) bool {
	if w.maxBytes <= 0 || w.backups <= 0 {
		return false
	}
	return w.size > 0 && w.size+incoming > w.maxBytes
}

func (w *rotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// rotate shifts name.N to name.N+1 (dropping the oldest), moves the live file
// to name.1, and reopens a fresh one.
func (w *rotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	os.Remove(fmt.Sprintf("%s.%d", w.path, w.backups))
	for i := w.backups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", w.path, i)
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, fmt.Sprintf("%s.%d", w.path, i+1))
		}
	}
	if err := os.Rename(w.path, w.path+".1"); err != nil {
		return err
	}
	return w.open()
}

func (w *rotatingWriter) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
}

// fileSink drives the two rotating writers: dev.log takes every record,
// error.log only ERROR and FATAL. I/O failures are reported to diagnostics
// and swallowed; persistence problems never reach the caller.
type fileSink struct {
	main   *rotatingWriter
	errors *rotatingWriter
}

// newFileSink lays the files out under the configured directory. A path
// ending in ".log" is taken as the main file itself, with error.log alongside.
func newFileSink(path string, maxBytes int64, backups int) *fileSink {
	dir := path
	mainPath := filepath.Join(path, "dev.log")
	if strings.HasSuffix(path, ".log") {
		mainPath = path
		dir = filepath.Dir(path)
	}
	return &fileSink{
		main:   newRotatingWriter(mainPath, maxBytes, backups),
		errors: newRotatingWriter(filepath.Join(dir, "error.log"), maxBytes, backups),
	}
}

func (s *fileSink) write(level Level, line []byte) {
	if err := s.main.writeLine(line); err != nil {
		diag.Warn(fmt.Sprintf("Sovdev Logger failed: file sink write: %v", err))
	}
	if level.isError() {
		if err := s.errors.writeLine(line); err != nil {
			diag.Warn(fmt.Sprintf("Sovdev Logger failed: error file sink write: %v", err))
		}
	}
}

func (s *fileSink) close() {
	s.main.close()
	s.errors.close()
}
