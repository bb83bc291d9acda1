// Package netmon watches the default network route and classifies the
// active connection as unmetered or metered based on its interface name.
// It listens for udev netlink events on the net subsystem and falls back
// to periodic polling when the netlink socket is unavailable.
package netmon
