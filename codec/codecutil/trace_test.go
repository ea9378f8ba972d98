package codecutil

import (
	"path/filepath"
	"testing"
)

func TestNewTraceWriterConfiguresRotation(t *testing.T) {
	cfg := TraceConfig{
		Path:       filepath.Join(t.TempDir(), "parse-trace.log"),
		MaxSizeMB:  5,
		MaxBackups: 2,
		MaxAgeDays: 7,
	}
	w := NewTraceWriter(cfg)
	if w.Filename != cfg.Path {
		t.Errorf("Filename = %q, want %q", w.Filename, cfg.Path)
	}
	if w.MaxSize != cfg.MaxSizeMB || w.MaxBackups != cfg.MaxBackups || w.MaxAge != cfg.MaxAgeDays {
		t.Errorf("rotation fields = %+v, want MaxSize=%d MaxBackups=%d MaxAge=%d", w, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
}
