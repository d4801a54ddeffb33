package fakeserver

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RecordedRequest is one request as the fake backend received it
type RecordedRequest struct {
	Method    string
	URI       string
	Body      string
	Header    http.Header
	RequestID string
}

// logger writes one access line per request
func logger(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("fake sheldon request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.RequestURI()),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// recorder keeps a copy of every request, body included
func (s *Server) recorder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:    r.Method,
			URI:       r.URL.RequestURI(),
			Body:      string(body),
			Header:    r.Header.Clone(),
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		})
		override, ok := s.overrides[r.Method+" "+r.URL.RequestURI()]
		s.mu.Unlock()

		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(override.status)
			_, _ = w.Write([]byte(override.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}
