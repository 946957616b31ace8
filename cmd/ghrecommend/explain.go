// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package main

import (
	"github.com/spf13/cobra"
)

func newExplainCommand(c *cli) *cobra.Command {
	var flags runFlags

	command := &cobra.Command{
		Use:   "explain owner/name",
		Short: "Attribute the score of one repository to the preferred repositories",
		Args:  exactlyOneRepo,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, req, release, err := c.prepare(cmd, &flags)
			if err != nil {
				return err
			}
			defer release()

			exp, err := runner.Explain(cmd.Context(), req, args[0])
			if err != nil {
				return err
			}
			printf(cmd, "%s\t%.6f\n", exp.Item, exp.Score)
			for _, contrib := range exp.Contributions {
				printf(cmd, "  %s\t%.6f\n", contrib.Item, contrib.Score)
			}
			return nil
		},
	}
	flags.register(command, true)
	return command
}
