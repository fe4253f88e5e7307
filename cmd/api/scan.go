package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a single reminder scan and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			rep := newScanner(a).Scan(cmd.Context(), time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "users=%d failed=%d due_soon=%d truncated=%d took=%s\n",
				rep.Users, rep.Failed, rep.DueSoon, rep.Truncated, rep.Duration)
			return nil
		},
	}
}
