// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package main

import (
	"github.com/spf13/cobra"
)

func newSimilarCommand(c *cli) *cobra.Command {
	var (
		flags runFlags
		n     int
	)

	command := &cobra.Command{
		Use:   "similar owner/name",
		Short: "List repositories whose learned factors are closest to one repository",
		Args:  exactlyOneRepo,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, req, release, err := c.prepare(cmd, &flags)
			if err != nil {
				return err
			}
			defer release()

			items, err := runner.Similar(cmd.Context(), req, args[0], n)
			if err != nil {
				return err
			}
			for _, it := range items {
				printf(cmd, "%s\t%.6f\n", it.Item, it.Score)
			}
			return nil
		},
	}
	flags.register(command, false)
	command.Flags().IntVarP(&n, "count", "n", 10, "number of similar repositories")
	return command
}
