// Package logging configures slog output for the fieldsync daemon and CLI.
//
// Two handler formats are supported: a human-oriented console format used on
// terminals and a JSON format for log files and aggregation. Helpers in this
// package standardize attribute keys (component, item_id, store_id,
// event_type) so queue and upload events stay greppable across subsystems.
package logging
