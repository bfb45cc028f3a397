/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains the HTTP middleware that logs request lifecycle
information (URI, method, status, latency) with anonymized client IPs.
Document fetches are demoted to Debug: every connected client polls the
relay on a short cadence, and logging each poll at Info would drown
everything else.
*/
package logx

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// anonymizeIP anonymizes the given IP address string.
// For IPv4 it zeros the last octet; for IPv6 it compresses the latter
// half to "::". This preserves approximate geolocation while enhancing
// user privacy.
func anonymizeIP(ipStr string) string {
	host, _, err := net.SplitHostPort(ipStr)
	if err == nil {
		ipStr = host
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "unknown_ip"
	}

	if ip.IsLoopback() {
		return "127.0.0.1"
	}

	if v4 := ip.To4(); v4 != nil {
		return v4[:3].String() + ".0"
	}

	if v6 := ip.To16(); v6 != nil {
		return v6[:8].String() + "::"
	}

	return ipStr
}

// isPollRequest reports whether the request is a periodic document fetch
// issued by a client's sync loop.
func isPollRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/channel/")
}

// RequestLogger returns an HTTP middleware that logs each request and
// injects a request-scoped logger into the context.
func RequestLogger() func(next http.Handler) http.Handler {
	baseLogger := Logger()

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())

			anonIP := anonymizeIP(r.RemoteAddr)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("component", "http").
				Str("request_id", requestID).
				Str("remote_ip", anonIP).
				Str("request_method", r.Method).
				Str("request_uri", r.RequestURI).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			t1 := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()

			logEvent := logger.Info()
			switch {
			case status >= 500:
				logEvent = logger.Error()
			case status >= 400:
				logEvent = logger.Warn()
			case isPollRequest(r):
				logEvent = logger.Debug()
			}

			logEvent.
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(t1)).
				Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}
