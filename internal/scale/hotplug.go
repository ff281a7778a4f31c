package scale

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"packline/internal/logging"
)

// HotplugMonitor listens for udev tty events on the scale device and calls
// onAttach when it reappears.
type HotplugMonitor struct {
	logger   *slog.Logger
	device   string
	onAttach func(device string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewHotplugMonitor returns nil when device is empty.
func NewHotplugMonitor(device string, logger *slog.Logger, onAttach func(device string)) *HotplugMonitor {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	return &HotplugMonitor{
		logger:   logging.NewComponentLogger(logger, "scale-hotplug"),
		device:   device,
		onAttach: onAttach,
	}
}

// Start connects to the kernel uevent socket. Failure is logged and not
// returned; the reader still retries on its own timer.
func (m *HotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; scale reconnects on timer only", "hotplug_connect_failed",
			logging.Error(err),
			logging.Hint("ensure the station user may open netlink sockets"),
			logging.Impact("replugged scale reconnects after the retry delay"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
		logging.String("device", m.device),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *HotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
}

// Running reports whether the monitor is active.
func (m *HotplugMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *HotplugMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, ttyMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "hotplug monitor error", "hotplug_monitor_error",
				logging.Error(err),
				logging.Impact("replugged scale reconnects after the retry delay"),
			)
		}
	}
}

// ttyMatcher matches tty add events.
func ttyMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "tty",
		},
	})
	return rules
}

func (m *HotplugMonitor) handleEvent(uevent netlink.UEvent) {
	devname := eventDeviceName(uevent)
	if !m.matches(devname) {
		return
	}
	m.logger.Info("scale device attached",
		logging.String(logging.FieldEventType, "scale_attached"),
		logging.String("device", devname),
	)
	if m.onAttach != nil {
		m.onAttach(devname)
	}
}

// matches compares an event device against the configured path. Stable
// symlinks such as /dev/serial/by-id/... are resolved first.
func (m *HotplugMonitor) matches(devname string) bool {
	if devname == "" {
		return false
	}
	if devname == m.device {
		return true
	}
	if resolved, err := filepath.EvalSymlinks(m.device); err == nil && resolved == devname {
		return true
	}
	return false
}

func eventDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			devname = "/dev/" + devname
		}
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	return "/dev/" + filepath.Base(devpath)
}
