package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/internal/api"
	"fieldsync/internal/logging"
	"fieldsync/internal/objectstore"
	"fieldsync/internal/queue"
	"fieldsync/internal/queueaccess"
)

// downloadURLTTL bounds how long a presigned link stays valid.
const downloadURLTTL = 15 * time.Minute

// downloadURL re-derives a presigned link for an uploaded item. The queue
// never stores URLs; they are minted on demand from storage credentials.
func downloadURL(ctx *commandContext, callCtx context.Context, item api.QueueItem) (string, error) {
	if item.Status != string(queue.StatusUploaded) {
		return "", fmt.Errorf("item %d is %s; download URLs exist only for uploaded items", item.ID, item.Status)
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	client, err := objectstore.New(cfg, logging.NewNop())
	if err != nil {
		return "", err
	}
	return client.PresignedURL(callCtx, item.RemotePath, downloadURLTTL)
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the upload queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueCleanupCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				items, err := access.List(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Photo", "Store", "Status", "Retries", "Created"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var withURL bool

	cmd := &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show one queue item in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				item, err := access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %d not found\n", id)
					return nil
				}
				rows := buildQueueItemDetailRows(*item)
				if withURL {
					url, err := downloadURL(ctx, cmd.Context(), *item)
					if err != nil {
						return err
					}
					rows = append(rows, []string{"Download URL", url})
				}
				table := renderTable(
					[]string{"Field", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&withURL, "url", false, "Include a temporary download URL for an uploaded item")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearUploaded bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				out := cmd.OutOrStdout()
				if clearUploaded {
					removed, err := access.ClearUploaded(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d uploaded items\n", removed)
					return nil
				}
				removed, err := access.ClearAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d queue items\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearUploaded, "uploaded", false, "Remove only uploaded items")
	return cmd
}

func newQueueCleanupCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove uploaded items older than a retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			return ctx.withQueueAccess(func(access queueaccess.Access) error {
				removed, err := access.Cleanup(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d uploaded items older than %s\n", removed, olderThan)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Retention window for uploaded items")
	return cmd
}
