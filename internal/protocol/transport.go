package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// maxLineSize is the maximum accepted request line length.
const maxLineSize = 1024 * 1024 // 1MB

// Transport frames newline-delimited messages over a byte stream pair.
// Reads are line-oriented; every write is flushed immediately so callers
// observe responses without buffering delay.
type Transport struct {
	scanner *bufio.Scanner

	mu sync.Mutex
	w  *bufio.Writer
}

// NewTransport creates a transport reading from r and writing to w.
func NewTransport(r io.Reader, w io.Writer) *Transport {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, maxLineSize)
	scanner.Buffer(buf, maxLineSize)

	return &Transport{
		scanner: scanner,
		w:       bufio.NewWriter(w),
	}
}

// ReadLine returns the next input line, or false when the stream is
// exhausted. Exhaustion covers both clean end-of-input and a read error;
// Err distinguishes them.
func (t *Transport) ReadLine() ([]byte, bool) {
	if !t.scanner.Scan() {
		return nil, false
	}

	return t.scanner.Bytes(), true
}

// Err returns the read error that ended the stream, or nil after a clean
// end-of-input.
func (t *Transport) Err() error {
	return t.scanner.Err()
}

// Write marshals a response, appends the line delimiter, and flushes.
func (t *Transport) Write(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.w.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	if err := t.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write response delimiter: %w", err)
	}

	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}

	return nil
}
