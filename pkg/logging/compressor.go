package logging

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// StartupCompressor collects the noisy output of a service start (image pull
// progress, build steps) and only shows it when the start fails.
type StartupCompressor struct {
	title string
	out   io.Writer

	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// NewStartupCompressor returns a compressor that dumps to the logger output.
func NewStartupCompressor(title string) *StartupCompressor {
	return NewStartupCompressorTo(title, Output())
}

// NewStartupCompressorTo is NewStartupCompressor with an explicit dump target.
func NewStartupCompressorTo(title string, out io.Writer) *StartupCompressor {
	return &StartupCompressor{title: title, out: out}
}

// Write buffers p until Close or CloseAndDump is called. Writes after closing
// are dropped.
func (c *StartupCompressor) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return len(p), nil
	}
	return c.buf.Write(p)
}

// Close discards everything captured so far.
func (c *StartupCompressor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.buf.Reset()
}

// CloseAndDump writes the title and the captured output, then closes.
func (c *StartupCompressor) CloseAndDump() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.out != nil {
		fmt.Fprintln(c.out, c.title)
		c.out.Write(c.buf.Bytes())
	}
	c.buf.Reset()
}
