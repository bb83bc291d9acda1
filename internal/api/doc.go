// Package api defines the transport-friendly representations of queue
// items and daemon status shared by the IPC surface and the CLI.
package api
