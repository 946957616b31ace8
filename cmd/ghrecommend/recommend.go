// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/ghrecommend/internal/logging"
)

func newRecommendCommand(c *cli) *cobra.Command {
	var (
		flags  runFlags
		scores bool
	)

	command := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend repositories for a preference file",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, req, release, err := c.prepare(cmd, &flags)
			if err != nil {
				return err
			}
			defer release()

			res, err := runner.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if res.Warning != nil {
				logging.Warn().Msg(res.Warning.Message())
			}
			for _, name := range res.UnknownSeeds {
				logging.Warn().Str("repo", name).Msg("Preferred repository not in the selected data")
			}
			if scores {
				for _, s := range res.Scored {
					printf(cmd, "%s\t%.6f\n", s.Item, s.Score)
				}
				return nil
			}
			for _, name := range res.Recommendations {
				printf(cmd, "%s\n", name)
			}
			return nil
		},
	}
	flags.register(command, true)
	command.Flags().BoolVar(&scores, "scores", false, "print the model score after each repository")
	return command
}
