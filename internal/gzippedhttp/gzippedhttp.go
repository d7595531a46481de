// Package gzippedhttp transparently decompresses gzip request bodies and
// compresses response bodies for clients that accept it.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

type unzippingReader struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func newUnzippingReader(body io.ReadCloser) (*unzippingReader, error) {
	zr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}

	return &unzippingReader{body: body, zr: zr}, nil
}

func (r *unzippingReader) Read(p []byte) (int, error) {
	return r.zr.Read(p)
}

func (r *unzippingReader) Close() error {
	if err := r.body.Close(); err != nil {
		return err
	}
	return r.zr.Close()
}

type zippingResponseWriter struct {
	w           http.ResponseWriter
	zw          *gzip.Writer
	passthrough bool
}

func newZippingResponseWriter(w http.ResponseWriter) *zippingResponseWriter {
	zw := gzipWriterPool.Get().(*gzip.Writer)
	zw.Reset(w)

	return &zippingResponseWriter{w: w, zw: zw}
}

func (z *zippingResponseWriter) Header() http.Header {
	return z.w.Header()
}

// WriteHeader compresses successful responses only; error bodies go out
// as-is so their encoding always matches the headers.
func (z *zippingResponseWriter) WriteHeader(statusCode int) {
	if statusCode < 300 {
		z.w.Header().Set("Content-Encoding", "gzip")
	} else {
		z.passthrough = true
	}
	z.w.WriteHeader(statusCode)
}

func (z *zippingResponseWriter) Write(p []byte) (int, error) {
	if z.passthrough {
		return z.w.Write(p)
	}

	return z.zw.Write(p)
}

func (z *zippingResponseWriter) Close() error {
	if !z.passthrough {
		if err := z.zw.Close(); err != nil {
			return err
		}
	}
	gzipWriterPool.Put(z.zw)

	return nil
}

// UngzipRequest replaces a gzip-encoded request body with a decompressing
// reader before the request reaches the handlers.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			unzipped, err := newUnzippingReader(request.Body)
			if err != nil {
				response.WriteHeader(http.StatusInternalServerError)
				return
			}
			request.Body = unzipped
			defer unzipped.Close()
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// GzipResponse compresses the response body when the client accepts gzip.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		finalResponse := response

		if strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			zipped := newZippingResponseWriter(response)
			finalResponse = zipped
			defer zipped.Close()
		}

		h.ServeHTTP(finalResponse, request)
	}

	return http.HandlerFunc(middleware)
}
