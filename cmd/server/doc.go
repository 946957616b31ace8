// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

/*
Package main is the entry point for the GHRecommend server.

GHRecommend recommends GitHub repositories from star (WatchEvent) activity.
A client uploads the repositories it likes; the server builds a rating table
over a time window of star events, trains a collaborative filtering model
and returns the repositories the model ranks highest.

# Application Architecture

	RootSupervisor ("ghrecommend")
	├── DataSupervisor ("data-layer")
	│   └── Profile store GC (when profiles are enabled and on disk)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment
 2. Logging: zerolog with JSON or console output
 3. Database: in-process DuckDB holding memoized event tables
 4. Event source: CSV file or warehouse database, chosen once at startup
 5. Pipeline runner: rating table, training and ranking per request
 6. Profile store: BadgerDB (optional)
 7. HTTP Server: chi router with rate limiting and Prometheus metrics

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	SOURCE_KIND=file             # file or warehouse
	DATA_PATH=data               # directory of the CSV event export
	EVENTS_FILENAME=github_archive_2022q1q2.csv
	PROJECT_ID=                  # warehouse project; selects warehouse source
	WAREHOUSE_ROOT=data/warehouse

	HTTP_PORT=8501
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	PROFILES_ENABLED=true
	PROFILES_PATH=data/profiles

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server then gets its
shutdown timeout to finish in-flight runs before the database closes.

# Example Usage

	export DATA_PATH=./data
	export LOG_FORMAT=console
	./server

	curl -F preferences=@prefs.json -F start=2022-06-01 -F end=2022-06-08 \
	  http://localhost:8501/api/v1/recommendations
*/
package main
