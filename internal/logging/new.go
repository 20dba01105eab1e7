package logging

import (
	"fmt"
	"io"
	"strings"
)

const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New builds a JSON logger writing to w with the requested backend and
// minimum level ("debug", "info", "warn", "error").
func New(backend, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendSlog:
		return newSlogJSON(level, w)
	case BackendZap:
		return newZapJSON(level, w)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
