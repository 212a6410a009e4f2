package logging

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultBufferLines is how many formatted lines a LogBuffer keeps
const DefaultBufferLines = 1000

// LogBuffer captures recent log lines in memory
type LogBuffer struct {
	lines    []string
	maxLines int
	mu       sync.Mutex
}

// NewLogBuffer creates a buffer keeping the last maxLines lines
func NewLogBuffer(maxLines int) *LogBuffer {
	if maxLines <= 0 {
		maxLines = DefaultBufferLines
	}
	return &LogBuffer{
		lines:    make([]string, 0, maxLines),
		maxLines: maxLines,
	}
}

// Levels implements logrus.Hook
func (lb *LogBuffer) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (lb *LogBuffer) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, line)
	if len(lb.lines) > lb.maxLines {
		lb.lines = lb.lines[len(lb.lines)-lb.maxLines:]
	}
	return nil
}

// GetLogs returns a copy of the buffered lines
func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
