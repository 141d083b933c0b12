package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CorrelationHeader carries the request id in both directions
const CorrelationHeader = "X-Correlation-ID"

type ctxKey int

const correlationKey ctxKey = 0

// CorrelationID tags each request with the caller's X-Correlation-ID, or a new uuid,
// echoes it in the response and logs the request around next.
func CorrelationID(log *logrus.Entry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationHeader, id)

		reqLog := log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path, "correlation_id": id})
		reqLog.Debug("Request received")
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey, id)))

		reqLog.WithField("duration", time.Since(start)).Info("Request completed")
	})
}

// GetCorrelationID returns the id stored by CorrelationID, or "unknown"
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return "unknown"
}
