// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

/*
Package supervisor runs the long-lived parts of the server under a suture
supervisor tree.

	ghrecommend (root)
	├── data-layer   profile store maintenance
	└── api-layer    HTTP server

A crashing service is restarted with suture's backoff without taking the
other layer down. Supervisor events are logged through sutureslog into the
zerolog-backed slog logger from internal/logging.

Recommendation runs are not services: each one executes inside the HTTP
request that asked for it.
*/
package supervisor
