package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var storeID string
	var storeName string

	cmd := &cobra.Command{
		Use:   "add <photo>",
		Short: "Queue a captured photo for upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			if source == "" {
				return errors.New("photo path is required")
			}
			if strings.TrimSpace(storeID) == "" {
				return errors.New("--store-id is required")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AddPhoto(source, storeID, storeName)
				if err != nil {
					return fmt.Errorf("queue photo: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued item %d\n", resp.Item.ID)
				fmt.Fprintf(out, "Spooled to %s\n", resp.Item.LocalFilePath)
				fmt.Fprintf(out, "Remote path %s\n", resp.Item.RemotePath)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&storeID, "store-id", "", "Store identifier the photo belongs to")
	cmd.Flags().StringVar(&storeName, "store-name", "", "Human-readable store name")
	_ = cmd.MarkFlagRequired("store-id")
	return cmd
}

func newDrainCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Request an immediate upload pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Drain(); err != nil {
					return fmt.Errorf("request drain: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Upload pass scheduled")
				return nil
			})
		},
	}
}
