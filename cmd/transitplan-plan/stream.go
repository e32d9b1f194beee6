package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"transitplan/internal/core/schedule"
	"transitplan/internal/services/planning/domain"
)

type line struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// printStream writes one JSON object per event until the terminal one
// a conflict ends the command with an error naming the resolution flag
func printStream(ctx context.Context, cmd *cobra.Command, events <-chan schedule.Event) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for {
		select {
		case <-ctx.Done():
			// days written so far stay written
			return ctx.Err()
		case ev, open := <-events:
			if !open {
				return nil
			}
			name, body := domain.Frame(ev)
			if err := enc.Encode(line{Event: name, Data: body}); err != nil {
				return err
			}
			if c, ok := body.(domain.Conflict); ok {
				return fmt.Errorf("%d conflicting days, rerun with --resolution skip or overwrite", c.Conflict.ConflictCount)
			}
			if ev.Terminal() {
				return nil
			}
		}
	}
}
