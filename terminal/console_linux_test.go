package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// openPty returns the master side of a new pseudo terminal and the path of
// its slave, which the serial driver opens like any other tty.
func openPty(t *testing.T) (*os.File, string) {
	t.Helper()

	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("no pseudo terminals: %v", err)
	}

	fd := int(master.Fd())
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		t.Skipf("unlock pty: %v", err)
	}

	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		master.Close()
		t.Skipf("pty number: %v", err)
	}

	return master, fmt.Sprintf("/dev/pts/%d", n)
}

func TestOpenStaysConnectedWhileIdle(t *testing.T) {
	master, slave := openPty(t)
	defer master.Close()

	in, stdin := io.Pipe()
	defer stdin.Close()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Open(slave, 115200, in, &out)
	}()

	select {
	case err := <-done:
		t.Fatalf("console returned %v while the device is idle and input open", err)
	case <-time.After(3 * IdleTimeout * time.Millisecond):
	}

	if _, err := master.Write([]byte("ready\n")); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for !strings.Contains(out.String(), "ready") {
		select {
		case err := <-done:
			t.Fatalf("console returned %v before device output arrived", err)
		case <-deadline:
			t.Fatalf("output = %q, want device output", out.String())
		case <-time.After(10 * time.Millisecond):
		}
	}

	stdin.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Open = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("console did not return after input ended")
	}
}
