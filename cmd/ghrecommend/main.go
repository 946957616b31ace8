// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Command ghrecommend runs one recommendation pass from the command line.
//
//	ghrecommend recommend --preferences prefs.json --start 2022-06-01 --end 2022-06-08
//	ghrecommend similar facebook/react -n 5
//	ghrecommend explain --preferences prefs.json vuejs/vue
//
// Configuration is read the same way as the server (config.yaml and
// environment); flags override the pipeline defaults for this run only.
// Recommendations go to stdout one per line, logs go to stderr.
//
// Exit status is 2 for invalid input and 1 for any other failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand(openRunner).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, models.ErrInput):
		return 2
	default:
		return 1
	}
}

// errorMessage keeps input errors short and shows the full chain otherwise.
func errorMessage(err error) string {
	if errors.Is(err, models.ErrInput) {
		return pipeline.UserMessage(err)
	}
	return err.Error()
}
