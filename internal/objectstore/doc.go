// Package objectstore implements the remote side of the upload queue: a thin
// MinIO client wrapper that puts spooled photo files at their queue-assigned
// destination keys.
package objectstore
