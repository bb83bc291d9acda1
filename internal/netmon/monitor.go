package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

// Monitor tracks whether the active connection qualifies as unmetered.
// Interface changes arrive via udev netlink events; when the netlink
// socket cannot be opened the monitor degrades to polling alone.
type Monitor struct {
	logger    *slog.Logger
	prefixes  []string
	interval  time.Duration
	routePath string
	onChange  func(unmetered bool)

	mu        sync.Mutex
	conn      *netlink.UEventConn
	quit      chan struct{}
	running   bool
	unmetered bool
	known     bool
}

// Option adjusts monitor construction.
type Option func(*Monitor)

// WithRouteTable overrides the kernel route table path.
func WithRouteTable(path string) Option {
	return func(m *Monitor) {
		m.routePath = path
	}
}

// New creates a monitor from the network configuration. onChange fires
// whenever the unmetered classification flips; it may be nil.
func New(cfg *config.Config, logger *slog.Logger, onChange func(unmetered bool), opts ...Option) *Monitor {
	if cfg == nil {
		return nil
	}

	interval := time.Duration(cfg.Network.ProbeInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	m := &Monitor{
		logger:    logging.WithComponent(logger, "netmon"),
		prefixes:  cfg.Network.UnmeteredPrefixes,
		interval:  interval,
		routePath: defaultRouteTable,
		onChange:  onChange,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.unmetered = m.evaluate()
	m.known = true
	return m
}

// Start begins watching for connectivity changes.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	m.quit = make(chan struct{})
	m.running = true
	quit := m.quit

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; falling back to route polling",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
		)
	} else {
		m.conn = conn
		go m.eventLoop(ctx, quit)
	}

	go m.pollLoop(ctx, quit)

	m.logger.Info("network monitor started",
		logging.String(logging.FieldEventType, "netmon_started"),
		logging.Bool("unmetered", m.unmetered),
		logging.Duration("probe_interval", m.interval),
	)

	return nil
}

// Stop shuts the monitor down.
func (m *Monitor) Stop() {
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

	m.logger.Info("network monitor stopped",
		logging.String(logging.FieldEventType, "netmon_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Unmetered reports the last observed connection classification.
func (m *Monitor) Unmetered() bool {
	if m == nil {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unmetered
}

// Refresh re-reads the route table and fires onChange if the
// classification flipped.
func (m *Monitor) Refresh() {
	if m == nil {
		return
	}

	current := m.evaluate()

	m.mu.Lock()
	changed := !m.known || current != m.unmetered
	m.unmetered = current
	m.known = true
	callback := m.onChange
	m.mu.Unlock()

	if !changed {
		return
	}

	m.logger.Info("connection classification changed",
		logging.String(logging.FieldEventType, "connectivity_changed"),
		logging.Bool("unmetered", current),
	)

	if callback != nil {
		callback(current)
	}
}

// evaluate classifies the current default route.
func (m *Monitor) evaluate() bool {
	iface, err := defaultRouteInterface(m.routePath)
	if err != nil {
		m.logger.Debug("route table read failed",
			logging.Error(err),
		)
		return false
	}
	if iface == "" {
		return false
	}
	return matchesPrefix(iface, m.prefixes)
}

// eventLoop consumes udev net subsystem events.
func (m *Monitor) eventLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.logger.Debug("net subsystem event",
				logging.String("action", string(uevent.Action)),
				logging.String("interface", uevent.Env["INTERFACE"]),
			)
			m.Refresh()
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
			)
		}
	}
}

// pollLoop re-checks the route table on a fixed interval. Routes can
// change without a udev event, for example when DHCP rewrites the
// default gateway on an existing interface.
func (m *Monitor) pollLoop(ctx context.Context, quit <-chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-ticker.C:
			m.Refresh()
		}
	}
}

// buildMatcher matches interface lifecycle events:
// SUBSYSTEM=net, ACTION=add|remove|move|change
func buildMatcher() netlink.Matcher {
	action := "add|remove|move|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "net",
		},
	})
	return rules
}
