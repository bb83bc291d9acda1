// Package ipc exposes daemon control over JSON-RPC on a Unix domain
// socket. The CLI is the only intended client; payloads reuse the api
// package DTOs so both surfaces stay consistent.
package ipc
