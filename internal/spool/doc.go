// Package spool copies captured photos into the local spool directory
// and builds the queue items that describe their eventual remote
// location. Files are copied durably so a queued item never points at
// a partially written photo.
package spool
