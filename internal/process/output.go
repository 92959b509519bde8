package process

import (
	"bytes"
	"sync"
)

// maxLineSize caps a buffered partial line; longer lines are logged in pieces.
const maxLineSize = 4096

// LogWriter is an io.Writer that logs subprocess output one line at a time
// at debug level.
type LogWriter struct {
	logger Logger
	name   string

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogWriter creates a LogWriter that tags every line with the process name.
func NewLogWriter(logger Logger, name string) *LogWriter {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogWriter{logger: logger, name: name}
}

// Write implements io.Writer.
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line: put it back unless it has grown too long.
			if len(line) >= maxLineSize {
				w.emit(line)
			} else {
				w.buf.Write(line)
			}
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *LogWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *LogWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return
	}
	w.logger.Debug("process output", "name", w.name, "output", string(line))
}
