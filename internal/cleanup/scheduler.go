package cleanup

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler removes stale files from the speech temp directory
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int, log logrus.FieldLogger) *Scheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}
	if maxAgeHours <= 0 {
		maxAgeHours = 24
	}
	return &Scheduler{
		tempDir:  tempDir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		log:      log,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start runs one cleanup immediately and then one per interval
func (s *Scheduler) Start() {
	s.log.Debug("Running initial temp file cleanup")
	s.CleanOldFiles()

	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.CleanOldFiles()
			case <-s.stopChan:
				return
			}
		}
	}()

	s.log.WithFields(logrus.Fields{
		"dir":      s.tempDir,
		"interval": s.interval,
		"max_age":  s.maxAge,
	}).Debug("Cleanup scheduler started")
}

// Stop stops the cleanup scheduler and waits for it to exit
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

// CleanOldFiles removes files older than the max age and returns how many
func (s *Scheduler) CleanOldFiles() int {
	now := s.now()

	var deletedCount int
	var deletedSize int64

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip files we can't access
		}
		if info.IsDir() {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			return nil
		}
		if err := os.Remove(path); err != nil {
			s.log.WithError(err).WithField("path", path).Warn("Failed to delete old temp file")
			return nil
		}
		deletedCount++
		deletedSize += info.Size()
		s.log.WithFields(logrus.Fields{
			"file": filepath.Base(path),
			"age":  age.Round(time.Hour),
		}).Debug("Deleted old temp file")
		return nil
	})
	if err != nil {
		s.log.WithError(err).Warn("Error during cleanup")
	}

	if deletedCount > 0 {
		s.log.Infof("Cleanup complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
	return deletedCount
}

// EnsureTempDirExists creates the temp directory if it doesn't exist
func EnsureTempDirExists(tempDir string) error {
	return os.MkdirAll(tempDir, 0755)
}
