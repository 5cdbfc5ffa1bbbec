package monitoring

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// UploadJanitor sweeps the upload staging directory, removing files that were
// left behind by aborted register requests.
type UploadJanitor struct {
	dir      string
	maxAge   time.Duration
	schedule cron.Schedule
	ticker   *time.Ticker
	done     chan bool
}

// NewUploadJanitor creates a janitor for dir. cronExpr is a standard 5-field
// cron expression controlling how often the sweep runs.
func NewUploadJanitor(dir, cronExpr string, maxAge time.Duration) (*UploadJanitor, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &UploadJanitor{
		dir:      dir,
		maxAge:   maxAge,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the janitor's ticking loop.
func (j *UploadJanitor) Run() {
	log.Info().Str("dir", j.dir).Msg("Starting upload staging janitor")
	j.ticker = time.NewTicker(1 * time.Minute)
	defer j.ticker.Stop()

	nextRun := j.schedule.Next(time.Now())

	for {
		select {
		case <-j.done:
			log.Info().Msg("Stopping upload staging janitor")
			return
		case now := <-j.ticker.C:
			if now.After(nextRun) {
				j.Sweep(now)
				nextRun = j.schedule.Next(now)
			}
		}
	}
}

// Stop halts the janitor.
func (j *UploadJanitor) Stop() {
	j.done <- true
}

// Sweep removes staged files older than maxAge relative to now.
func (j *UploadJanitor) Sweep(now time.Time) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", j.dir).Msg("Janitor: failed to read staging dir")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < j.maxAge {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Janitor: failed to remove stale upload")
			continue
		}
		log.Debug().Str("path", path).Msg("Janitor: removed stale upload")
	}
}
