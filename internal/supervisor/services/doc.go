// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package services adapts server components to suture.Service.
//
//   - HTTPServerService: ListenAndServe / Shutdown of the API server
//   - ProfileGCService: periodic BadgerDB value log GC of the profile store
package services
