package netmon

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const defaultRouteTable = "/proc/net/route"

// defaultRouteInterface returns the interface name that carries the
// default route, or "" when no default route exists.
func defaultRouteInterface(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open route table: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		// A destination of 00000000 marks the default route.
		if fields[1] == "00000000" {
			return fields[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read route table: %w", err)
	}
	return "", nil
}

// matchesPrefix reports whether the interface name starts with any of the
// given prefixes. Matching is case-insensitive.
func matchesPrefix(iface string, prefixes []string) bool {
	name := strings.ToLower(strings.TrimSpace(iface))
	if name == "" {
		return false
	}
	for _, prefix := range prefixes {
		p := strings.ToLower(strings.TrimSpace(prefix))
		if p == "" {
			continue
		}
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
