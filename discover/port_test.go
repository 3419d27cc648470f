package discover

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestFirstUSB(t *testing.T) {
	ports := []Port{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", USB: true, VID: "1a86", PID: "7523"},
		{Name: "/dev/ttyUSB1", USB: true, VID: "0403", PID: "6001"},
	}

	got := firstUSB(ports)
	if got == nil || got.Name != "/dev/ttyUSB0" {
		t.Errorf("firstUSB() = %v, want /dev/ttyUSB0", got)
	}

	if got := firstUSB(ports[:1]); got != nil {
		t.Errorf("firstUSB() = %v, want nil", got)
	}
}

func TestPrintPorts(t *testing.T) {
	ports := []Port{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", USB: true, VID: "1a86", PID: "7523", Product: "USB Serial"},
	}

	var buf bytes.Buffer
	if err := printPorts(&buf, ports); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "PORT") {
		t.Errorf("missing header: %q", lines[0])
	}
	if !strings.Contains(lines[2], "1a86:7523") || !strings.Contains(lines[2], "USB Serial") {
		t.Errorf("USB details missing: %q", lines[2])
	}
}

func TestPrintPortsEmpty(t *testing.T) {
	err := printPorts(&bytes.Buffer{}, nil)
	if !errors.Is(err, ErrNoPorts) {
		t.Errorf("error = %v, want %v", err, ErrNoPorts)
	}
}

func TestPortString(t *testing.T) {
	p := Port{Name: "COM3", USB: true, VID: "0403", PID: "6001", Product: "FT232R"}
	if got := p.String(); got != "COM3 [0403:6001] FT232R" {
		t.Errorf("String() = %q", got)
	}

	if got := (Port{Name: "/dev/ttyS1"}).String(); got != "/dev/ttyS1" {
		t.Errorf("String() = %q", got)
	}
}
