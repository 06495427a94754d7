package autofill

import (
	"bytes"
	"fmt"
	"sync"
)

type Logger interface {
	Printf(format string, a ...interface{})
}

// BufferedLogger collects lines until flushed. Safe for concurrent use.
type BufferedLogger struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (buflog *BufferedLogger) Printf(format string, a ...interface{}) {
	buflog.mu.Lock()
	defer buflog.mu.Unlock()
	fmt.Fprintf(&buflog.buffer, format, a...)
	buflog.buffer.WriteByte('\n')
}

func (buflog *BufferedLogger) String() string {
	buflog.mu.Lock()
	defer buflog.mu.Unlock()
	return buflog.buffer.String()
}

func (buflog *BufferedLogger) Flush(logger Logger) {
	buflog.mu.Lock()
	s := buflog.buffer.String()
	buflog.buffer.Reset()
	buflog.mu.Unlock()
	if s != "" {
		logger.Printf("%v", s)
	}
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Printf(string, ...interface{}) {}
