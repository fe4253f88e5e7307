package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	var (
		userID string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's upcoming doses as an .ics file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			exp, err := a.svcs.Calendar.Export(cmd.Context(), userID)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(exp.Body)
				return err
			}
			if out == "" {
				out = exp.Filename
			}
			if err := os.WriteFile(out, exp.Body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d events to %s\n", exp.Events, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to export")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (- for stdout, default medications-<name>.ics)")
	return cmd
}
