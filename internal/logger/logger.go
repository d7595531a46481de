// Package logger provides structured logging for the service using the
// Uber zap library, plus an HTTP middleware that logs every request with
// its response status and size.
package logger

import (
	"errors"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Log is the global SugaredLogger instance. It must be initialized via
// Init() before use.
var Log *zap.SugaredLogger

type recordedResponse struct {
	status int
	size   int
}

type recordingResponseWriter struct {
	http.ResponseWriter
	recorded *recordedResponse
}

func (w *recordingResponseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.recorded.size += size
	return size, err
}

func (w *recordingResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.recorded.status = statusCode
}

// Init configures the global logger with the given level.
func Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()

	return nil
}

// Sync flushes any buffered log entries. Call it on shutdown.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}

	return nil
}

// WithLoggingHTTPMiddleware wraps an http.Handler and logs the method, URI,
// response status, duration and body size of every request it serves.
func WithLoggingHTTPMiddleware(h http.Handler) http.Handler {
	logFn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorded := &recordedResponse{}
		rw := recordingResponseWriter{
			ResponseWriter: w,
			recorded:       recorded,
		}
		h.ServeHTTP(&rw, r)

		Log.Infoln(
			"uri", r.RequestURI,
			"method", r.Method,
			"status", recorded.status,
			"duration", time.Since(start),
			"size", recorded.size,
		)
	}

	return http.HandlerFunc(logFn)
}
