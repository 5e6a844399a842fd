package communication

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	maxLineLength       = 4096
	defaultWriteTimeout = 5 * time.Second
)

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Conn carries protocol messages over a byte stream. A single reader goroutine
// feeds incoming lines to Receive, so a silent peer can always be abandoned
// through the context.
type Conn struct {
	w      *bufio.Writer
	raw    io.Writer
	closer io.Closer

	wmu sync.Mutex

	lines chan string
	done  chan struct{}
	err   error // Set by the reader before lines is closed

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps a reader and writer; closer releases them both.
func NewConn(r io.Reader, w io.Writer, closer io.Closer) *Conn {
	c := &Conn{
		w:      bufio.NewWriter(w),
		raw:    w,
		closer: closer,
		lines:  make(chan string, 16),
		done:   make(chan struct{}),
	}
	go c.readLoop(r)
	return c
}

// NewStreamConn wraps a single read-write stream such as a net.Conn.
func NewStreamConn(rwc io.ReadWriteCloser) *Conn {
	return NewConn(rwc, rwc, rwc)
}

func (c *Conn) readLoop(r io.Reader) {
	defer close(c.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), maxLineLength)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		case <-c.done:
			c.err = io.ErrClosedPipe
			return
		}
	}
	c.err = scanner.Err()
	if c.err == nil {
		c.err = io.EOF
	}
}

func (c *Conn) Send(m Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if d, ok := c.raw.(writeDeadliner); ok {
		_ = d.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	}
	if _, err := c.w.WriteString(m.String() + "\n"); err != nil {
		return fmt.Errorf("%w: send %s: %w", ErrConnection, m.Verb, err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("%w: send %s: %w", ErrConnection, m.Verb, err)
	}
	return nil
}

// Receive returns the next non-blank line as a message. Running out of time is
// a protocol violation; a closed or broken stream is a connection error.
func (c *Conn) Receive(ctx context.Context) (Message, error) {
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return Message{}, fmt.Errorf("%w: %w", ErrConnection, c.err)
			}
			if isBlank(line) {
				continue
			}
			return ParseMessage(line)
		case <-ctx.Done():
			return Message{}, fmt.Errorf("%w: no message in time: %w", ErrProtocolViolation, ctx.Err())
		}
	}
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.closer != nil {
			c.closeErr = c.closer.Close()
		}
	})
	if errors.Is(c.closeErr, io.ErrClosedPipe) {
		return nil
	}
	return c.closeErr
}

func isBlank(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}
