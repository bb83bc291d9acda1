// Package daemon wires the queue store, spooler, upload scheduler, and
// network monitor into a single-instance background service. A file
// lock guarantees only one daemon drains a given queue database.
package daemon
