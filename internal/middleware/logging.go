package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware logs the method, path and duration of each HTTP request.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect is called once a socket upgrade is accepted.
func LogWebSocketConnect(logger *logrus.Logger, r *http.Request) {
	logger.WithFields(logrus.Fields{
		"remote":     r.RemoteAddr,
		"path":       r.URL.Path,
		"user_agent": r.UserAgent(),
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect is called when the socket's read loop exits.
func LogWebSocketDisconnect(logger *logrus.Logger, r *http.Request, err error) {
	fields := logrus.Fields{
		"remote": r.RemoteAddr,
		"path":   r.URL.Path,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
