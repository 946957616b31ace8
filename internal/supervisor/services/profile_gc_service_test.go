// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*ProfileGCService)(nil)

type countingGC struct {
	runs atomic.Int32
	err  error
}

func (c *countingGC) RunGC() error {
	c.runs.Add(1)
	return c.err
}

func TestNewProfileGCService_DefaultInterval(t *testing.T) {
	svc := NewProfileGCService(&countingGC{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
	if svc.String() != "profile-gc" {
		t.Errorf("String() = %q, want profile-gc", svc.String())
	}
}

func TestProfileGCService_Serve(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"successful runs", nil},
		{"failures keep the loop alive", errors.New("disk full")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := &countingGC{err: tt.err}
			svc := NewProfileGCService(gc, 10*time.Millisecond)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			err := svc.Serve(ctx)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve = %v, want context.DeadlineExceeded", err)
			}
			if got := gc.runs.Load(); got < 2 {
				t.Errorf("RunGC calls = %d, want at least 2", got)
			}
		})
	}
}
