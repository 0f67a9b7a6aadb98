package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"
)

// Logging writes one ECS formatted log record per request. Bodies and headers other
// than Content-Type are never logged since they carry prompts and credentials.
// Health probes and metric scrapes are logged at debug level only.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		Level: slog.LevelInfo,
		Skip: func(r *http.Request, respStatus int) bool {
			return respStatus < 400 && isProbe(r) && !logger.Enabled(r.Context(), slog.LevelDebug)
		},

		LogRequestHeaders:  []string{"Content-Type"},
		LogResponseHeaders: []string{},

		// Recovery middleware handles panics.
		RecoverPanics: false,
	})
}

func isProbe(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/health/") || r.URL.Path == "/metrics"
}

// SetLogAttrs adds attributes to the current request's log record.
func SetLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	httplog.SetAttrs(ctx, attrs...)
}
