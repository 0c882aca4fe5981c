package logger

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newRotatingWriter returns a size-rotating file writer for worker and API
// logs. Rotated files are gzip-compressed; MaxFiles bounds how many are
// kept.
func newRotatingWriter(cfg LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
		Compress:   true,
	}
}
