package terminal

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// idleConn behaves like an open serial line: reads return zero bytes while
// nothing is waiting, queued output is handed out after idleReads empty
// reads, and only Close ends the stream.
type idleConn struct {
	mu        sync.Mutex
	idleReads int
	output    bytes.Buffer
	written   bytes.Buffer
	closed    bool
	reads     int
}

func (c *idleConn) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, io.EOF
	}

	c.reads++
	if c.reads <= c.idleReads {
		return 0, nil
	}

	n, _ := c.output.Read(p)
	return n, nil
}

func (c *idleConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *idleConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *idleConn) Written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.String()
}

// syncBuffer is written by the reader goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

func TestReadSerialSkipsIdleReads(t *testing.T) {
	conn := &idleConn{idleReads: 5}
	conn.output.WriteString("RT-4D bootloader ready\r\n")

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- readSerial(conn, &out)
	}()

	deadline := time.After(2 * time.Second)
	for out.String() != "RT-4D bootloader ready\r\n" {
		select {
		case err := <-done:
			t.Fatalf("readSerial returned %v on an idle line, output %q", err, out.String())
		case <-deadline:
			t.Fatalf("output = %q", out.String())
		case <-time.After(5 * time.Millisecond):
		}
	}

	select {
	case err := <-done:
		t.Fatalf("readSerial returned %v while the port is open", err)
	case <-time.After(50 * time.Millisecond):
	}

	conn.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("readSerial after close = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("readSerial did not return after close")
	}
}

func TestReadSerialDriverError(t *testing.T) {
	cause := errors.New("input/output error")

	err := readSerial(failingReader{cause}, io.Discard)
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want %v", err, cause)
	}
}

func TestPipeRunsUntilInputEnds(t *testing.T) {
	conn := &idleConn{idleReads: 3}
	conn.output.WriteString("boot\r\n")
	defer conn.Close()

	in, stdin := io.Pipe()
	var out syncBuffer

	done := make(chan error, 1)
	go func() {
		done <- Pipe(conn, in, &out)
	}()

	if _, err := stdin.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		t.Fatalf("Pipe returned %v while input is open and the line idle", err)
	case <-time.After(100 * time.Millisecond):
	}

	stdin.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pipe did not return after input ended")
	}

	if got := conn.Written(); got != "hello" {
		t.Errorf("sent %q, want hello", got)
	}
	if got := out.String(); !strings.Contains(got, "boot") {
		t.Errorf("output = %q, want device output", got)
	}
}

func TestPipeEndsWhenPortCloses(t *testing.T) {
	conn := &idleConn{}
	in, stdin := io.Pipe()
	defer stdin.Close()

	done := make(chan error, 1)
	go func() {
		done <- Pipe(conn, in, io.Discard)
	}()

	conn.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Pipe = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pipe did not return after the port closed")
	}
}
