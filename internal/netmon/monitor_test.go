package netmon

import (
	"os"
	"path/filepath"
	"testing"

	"fieldsync/internal/logging"
	"fieldsync/internal/testsupport"
)

const routeWithEthDefault = `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
eth0	00000000	0102A8C0	0003	0	0	100	00000000	0	0	0
eth0	0002A8C0	00000000	0001	0	0	100	00FFFFFF	0	0	0
`

const routeWithWwanDefault = `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
wwan0	00000000	0102A8C0	0003	0	0	700	00000000	0	0	0
`

const routeWithoutDefault = `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
eth0	0002A8C0	00000000	0001	0	0	100	00FFFFFF	0	0	0
`

func writeRouteTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "route")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write route table: %v", err)
	}
	return path
}

func TestDefaultRouteInterface(t *testing.T) {
	path := writeRouteTable(t, routeWithEthDefault)
	iface, err := defaultRouteInterface(path)
	if err != nil {
		t.Fatalf("defaultRouteInterface: %v", err)
	}
	if iface != "eth0" {
		t.Fatalf("expected eth0, got %q", iface)
	}
}

func TestDefaultRouteInterfaceNoDefault(t *testing.T) {
	path := writeRouteTable(t, routeWithoutDefault)
	iface, err := defaultRouteInterface(path)
	if err != nil {
		t.Fatalf("defaultRouteInterface: %v", err)
	}
	if iface != "" {
		t.Fatalf("expected no default route, got %q", iface)
	}
}

func TestDefaultRouteInterfaceMissingFile(t *testing.T) {
	if _, err := defaultRouteInterface(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing route table")
	}
}

func TestMatchesPrefix(t *testing.T) {
	prefixes := []string{"eth", "en", "wlan", "wl"}
	cases := []struct {
		iface string
		want  bool
	}{
		{"eth0", true},
		{"enp3s0", true},
		{"wlan0", true},
		{"wlp2s0", true},
		{"wwan0", false},
		{"usb0", false},
		{"ppp0", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := matchesPrefix(tc.iface, prefixes); got != tc.want {
			t.Errorf("matchesPrefix(%q) = %v, want %v", tc.iface, got, tc.want)
		}
	}
}

func TestMonitorClassifiesDefaultRoute(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeRouteTable(t, routeWithEthDefault)

	monitor := New(cfg, logging.NewNop(), nil, WithRouteTable(path))
	if !monitor.Unmetered() {
		t.Fatal("expected eth0 default route to classify as unmetered")
	}
}

func TestMonitorRefreshFiresOnChange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeRouteTable(t, routeWithEthDefault)

	var flips []bool
	monitor := New(cfg, logging.NewNop(), func(unmetered bool) {
		flips = append(flips, unmetered)
	}, WithRouteTable(path))

	if !monitor.Unmetered() {
		t.Fatal("expected unmetered start state")
	}

	// Same classification does not fire the callback.
	monitor.Refresh()
	if len(flips) != 0 {
		t.Fatalf("unexpected callback for unchanged state: %v", flips)
	}

	if err := os.WriteFile(path, []byte(routeWithWwanDefault), 0o644); err != nil {
		t.Fatalf("rewrite route table: %v", err)
	}
	monitor.Refresh()
	if monitor.Unmetered() {
		t.Fatal("expected metered state after route change")
	}
	if len(flips) != 1 || flips[0] != false {
		t.Fatalf("expected one metered flip, got %v", flips)
	}

	if err := os.WriteFile(path, []byte(routeWithEthDefault), 0o644); err != nil {
		t.Fatalf("rewrite route table: %v", err)
	}
	monitor.Refresh()
	if len(flips) != 2 || flips[1] != true {
		t.Fatalf("expected unmetered flip, got %v", flips)
	}
}

func TestMonitorNoDefaultRouteIsMetered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeRouteTable(t, routeWithoutDefault)

	monitor := New(cfg, logging.NewNop(), nil, WithRouteTable(path))
	if monitor.Unmetered() {
		t.Fatal("expected metered classification without a default route")
	}
}
