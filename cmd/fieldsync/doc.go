// Package main hosts the fieldsync CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the fieldsyncd daemon: photo ingestion, queue inspection
// and maintenance, upload drains, log tailing, and configuration
// scaffolding. Queue inspection commands fall back to direct SQLite
// access when the daemon is offline, so drivers can review pending
// uploads in the field without a running daemon.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands or
// flags here.
package main
