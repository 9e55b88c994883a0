// Package console captures the diagnostics an action emits during one run.
package console

import (
	"fmt"
	"sync"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
	LevelDebug   Level = "DEBUG"
)

// Entry is one captured diagnostic.
type Entry struct {
	Level   Level  `json:"level"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Console keeps entries in emission order.
type Console struct {
	source  string
	mu      sync.Mutex
	entries []Entry
}

func New(source string) *Console {
	return &Console{source: source}
}

// Log records msg as is.
func (c *Console) Log(level Level, msg string) {
	c.mu.Lock()
	c.entries = append(c.entries, Entry{Level: level, Source: c.source, Message: msg})
	c.mu.Unlock()
}

// Logf formats the message in the manner of fmt.Sprintf.
func (c *Console) Logf(level Level, format string, args ...interface{}) {
	c.Log(level, fmt.Sprintf(format, args...))
}

func (c *Console) Info(msg string)    { c.Log(LevelInfo, msg) }
func (c *Console) Warning(msg string) { c.Log(LevelWarning, msg) }
func (c *Console) Error(msg string)   { c.Log(LevelError, msg) }
func (c *Console) Debug(msg string)   { c.Log(LevelDebug, msg) }

func (c *Console) Infof(format string, args ...interface{})    { c.Logf(LevelInfo, format, args...) }
func (c *Console) Warningf(format string, args ...interface{}) { c.Logf(LevelWarning, format, args...) }
func (c *Console) Errorf(format string, args ...interface{})   { c.Logf(LevelError, format, args...) }
func (c *Console) Debugf(format string, args ...interface{})   { c.Logf(LevelDebug, format, args...) }

// Entries returns a copy; never nil so it always encodes as a JSON list.
func (c *Console) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Attacher is implemented by instances that accept a console before running.
type Attacher interface {
	AttachConsole(c *Console)
}
