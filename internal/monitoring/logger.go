// Package monitoring holds the package-level diagnostic logger shared by the
// replay stages and the per-collection size summaries they emit.
package monitoring

import (
	"log"
	"sync"
)

var (
	mu   sync.RWMutex
	logf = log.Printf
)

// Logf writes a diagnostic line through the configured logger.
func Logf(format string, v ...interface{}) {
	mu.RLock()
	f := logf
	mu.RUnlock()
	f(format, v...)
}

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		logf = func(string, ...interface{}) {}
		return
	}
	logf = f
}

// CollectionSize logs the one-line size summary for a published collection,
// e.g. "MCH 12 TRACKS".
func CollectionSize(origin string, count int, what string) {
	Logf("%s %d %s", origin, count, what)
}
