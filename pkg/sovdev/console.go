package sovdev

import (
	"fmt"
	"io"
	"sync"
)

// consoleSink writes one JSON record per line to the process error stream.
// stdout is never used; the structured output must not mix with application
// output.
type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{w: w}
}

func (c *consoleSink) write(line []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(append(line, '\n')); err != nil {
		diag.Warn(fmt.Sprintf("Sovdev Logger failed: console sink write: %v", err))
	}
}
