package scale

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestNewHotplugMonitor(t *testing.T) {
	if m := NewHotplugMonitor("  ", nil, nil); m != nil {
		t.Fatal("expected nil monitor for empty device")
	}
	m := NewHotplugMonitor("/dev/ttyUSB0", nil, nil)
	if m == nil || m.device != "/dev/ttyUSB0" {
		t.Fatalf("unexpected monitor %+v", m)
	}
	if m.Running() {
		t.Fatal("unstarted monitor reports running")
	}
	m.Stop()
}

func TestHotplugMonitorNilSafe(t *testing.T) {
	var m *HotplugMonitor
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor: %v", err)
	}
	m.Stop()
	if m.Running() {
		t.Fatal("nil monitor reports running")
	}
}

func TestHotplugHandleEvent(t *testing.T) {
	var attached []string
	m := NewHotplugMonitor("/dev/ttyUSB0", nil, func(device string) { attached = append(attached, device) })

	m.handleEvent(netlink.UEvent{Env: map[string]string{"DEVNAME": "ttyUSB1"}})
	m.handleEvent(netlink.UEvent{Env: map[string]string{"DEVPATH": "/devices/pci0000:00/usb1/1-1/ttyUSB0/tty/ttyUSB0"}})
	m.handleEvent(netlink.UEvent{Env: map[string]string{}})

	if len(attached) != 1 || attached[0] != "/dev/ttyUSB0" {
		t.Fatalf("attached = %v", attached)
	}
}

func TestHotplugMatchesSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ttyUSB3")
	if err := os.WriteFile(target, nil, 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	link := filepath.Join(dir, "scale-by-id")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	m := NewHotplugMonitor(link, nil, nil)
	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if !m.matches(resolved) {
		t.Fatalf("expected %s to match symlink %s", resolved, link)
	}
	if m.matches(filepath.Join(dir, "ttyUSB4")) {
		t.Fatal("unrelated device matched")
	}
}
