package revoker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Entry is one line of the run's log trail, shaped for display.
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

type runLog struct {
	entries []Entry
	sink    func(Entry)
}

func newLog(sink func(Entry)) *runLog {
	return &runLog{sink: sink}
}

func (l *runLog) add(level Level, format string, a ...any) {
	entry := Entry{
		ID:      ksuid.New().String(),
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, a...),
	}
	l.entries = append(l.entries, entry)
	if l.sink != nil {
		l.sink(entry)
	}
	slog.Debug("revoker", "level", level, "message", entry.Message)
}

func (l *runLog) infof(format string, a ...any)    { l.add(LevelInfo, format, a...) }
func (l *runLog) successf(format string, a ...any) { l.add(LevelSuccess, format, a...) }
func (l *runLog) warnf(format string, a ...any)    { l.add(LevelWarning, format, a...) }
func (l *runLog) errorf(format string, a ...any)   { l.add(LevelError, format, a...) }
