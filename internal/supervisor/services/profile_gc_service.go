// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package services

import (
	"context"
	"time"

	"github.com/tomtom215/ghrecommend/internal/logging"
)

// GarbageCollector is satisfied by *profiles.Store.
type GarbageCollector interface {
	RunGC() error
}

// ProfileGCService periodically reclaims value log space of the profile
// store. GC failures are logged and retried on the next tick; they never
// restart the service.
type ProfileGCService struct {
	gc       GarbageCollector
	interval time.Duration
}

// NewProfileGCService creates the service. A non-positive interval means 10m.
func NewProfileGCService(gc GarbageCollector, interval time.Duration) *ProfileGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ProfileGCService{gc: gc, interval: interval}
}

// Serve implements suture.Service.
func (s *ProfileGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Profile store GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Profile store GC completed")
		}
	}
}

func (s *ProfileGCService) String() string {
	return "profile-gc"
}
