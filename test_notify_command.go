package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/delivery"
	"github.com/granforum/forum/models"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the subscribers of a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(groupID); err != nil {
				return fmt.Errorf("invalid group id %q", groupID)
			}

			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			group, err := a.groupRepo.GetGroupByID(cmd.Context(), groupID)
			if errors.Is(err, datastore.ErrNotFound) {
				return fmt.Errorf("group %s not found", groupID)
			}
			if err != nil {
				return fmt.Errorf("load group: %w", err)
			}

			subs, err := a.subscriptionRepo.GetSubscriptionsByGroupID(cmd.Context(), group.ID)
			if err != nil {
				return fmt.Errorf("load subscriptions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Group %q has %d subscriptions\n", group.Name, len(subs))

			results := a.notifier.NotifyGroup(cmd.Context(), group.ID, models.NotificationEventTest, a.renderer.Test(*group))
			printResults(cmd.OutOrStdout(), results)
			for _, res := range results {
				if res.Err != nil {
					return errors.New("one or more channels failed")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&groupID, "group", "g", "", "Group ID")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func printResults(out io.Writer, results []delivery.Result) {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "sent"
		switch {
		case res.Err != nil:
			status = "failed: " + res.Err.Error()
		case res.Skipped:
			status = "skipped"
		}
		rows = append(rows, []string{res.Channel, fmt.Sprintf("%d", res.Recipients), status})
	}
	fmt.Fprintln(out, renderTable([]string{"Channel", "Recipients", "Status"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
}
