// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger writes classified errors as JSON and logs the unclassified ones.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger that logs to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// Write maps err onto its HTTP status and writes {"error": "..."}.
// Internal errors are logged at Error and replaced by a generic message.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		fields := []zap.Field{
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if id, ok := auth.CurrentIdentity(r); ok {
			fields = append(fields, zap.String("user_id", id.ID.Hex()))
		}
		e.Log.Error("request failed", fields...)
	}
	jsonio.Message(w, kind.HTTPStatus(), apperr.Message(err))
}
