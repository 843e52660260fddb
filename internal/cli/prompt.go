package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Reader provides context-aware line reading that can be interrupted.
type Reader struct {
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewReader wraps an input stream for interruptible reads.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("reader cannot be nil")
	}
	return &Reader{reader: bufio.NewReader(r)}
}

// ReadLine reads one line, respecting context cancellation. The underlying
// read keeps running after cancellation; the caller just stops waiting.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return "", res.err
		}
		return strings.TrimRight(res.value, "\r\n"), nil
	}
}

// Confirm asks a yes/no question and returns the answer. Empty input means
// no.
func Confirm(ctx context.Context, r *Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", BoldStyle.Render(question))

	line, err := r.ReadLine(ctx)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
