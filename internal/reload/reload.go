// Package reload watches external calibration files and triggers geometry
// reloads off the render path.
package reload

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/mpcdi-warp/internal/logger"
)

// Tracker remembers the modification time of a set of files.
type Tracker struct {
	mu    sync.Mutex
	stamp map[string]time.Time
}

// NewTracker creates a tracker for paths and records their current state.
func NewTracker(paths ...string) *Tracker {
	t := &Tracker{stamp: make(map[string]time.Time)}
	t.Track(paths...)
	return t
}

// Track adds paths and records their current modification time. Missing
// files are recorded with a zero time and report a change once they appear.
func (t *Tracker) Track(paths ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range paths {
		if p == "" {
			continue
		}
		t.stamp[p] = modTime(p)
	}
}

// Paths returns the tracked paths in sorted order.
func (t *Tracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.stamp))
	for p := range t.stamp {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Changed returns the paths whose modification time differs from the last
// check and records the new times.
func (t *Tracker) Changed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var changed []string
	for p, old := range t.stamp {
		if now := modTime(p); !now.Equal(old) {
			t.stamp[p] = now
			changed = append(changed, p)
		}
	}
	sort.Strings(changed)
	return changed
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// Poll checks tracker every interval and calls fn with the changed paths.
// It returns when ctx is cancelled. Errors from fn are logged and polling
// continues, so a half-written file is retried on its next change.
func Poll(ctx context.Context, interval time.Duration, tracker *Tracker, fn func(changed []string) error) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	log := logger.Named("reload")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			changed := tracker.Changed()
			if len(changed) == 0 {
				continue
			}
			log.Info("external files changed", zap.Strings("files", changed))
			if err := fn(changed); err != nil {
				log.Warn("reload failed", zap.Strings("files", changed), zap.Error(err))
			}
		}
	}
}
