package cli

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/kataras/golog"
)

// LoggerNames lists the package loggers created with golog.Child
var LoggerNames = []string{"[rawio]", "[convert]", "[swscale]", "[encoder]", "[hwaccel]", "[pipeline]"}

// SetLogLevel applies level to the default logger and every package
// logger. Child loggers copy the level when created, so each is set.
func SetLogLevel(level string) {
	golog.SetLevel(level)
	for _, name := range LoggerNames {
		golog.Child(name).SetLevel(level)
	}
}

// heldWriter buffers log output while a progress view owns the terminal
type heldWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (h *heldWriter) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.Write(p)
}

func (h *heldWriter) flushTo(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = h.buf.WriteTo(w)
}

// HoldLogs redirects log output into memory until the returned function
// is called, which writes everything held to stderr and restores output.
func HoldLogs() func() {
	held := &heldWriter{}
	golog.SetOutput(held)
	return func() {
		golog.SetOutput(os.Stderr)
		held.flushTo(os.Stderr)
	}
}
