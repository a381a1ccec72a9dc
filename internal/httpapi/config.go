package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
)

const defaultMaxBodyBytes int64 = 1 << 20

// Process-level settings applied by NewMux and the handlers. Setters must be
// called before NewMux.
var (
	maxBodyBytes  = defaultMaxBodyBytes
	corsOptions   *cors.Options
	serverBaseCtx = context.Background()
)

// SetMaxBodyBytes bounds the size of POST /offload bodies. Non-positive values
// restore the 1 MiB default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = defaultMaxBodyBytes
	}
	maxBodyBytes = n
}

// SetCORSOptions enables CORS for the given origins. Empty methods or headers
// fall back to what the offload API needs.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	if !enabled {
		corsOptions = nil
		return
	}
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(headers) == 0 {
		headers = []string{"Content-Type", "X-Request-Id", "X-Log-Level"}
	}
	corsOptions = &cors.Options{
		AllowedOrigins: append([]string(nil), origins...),
		AllowedMethods: append([]string(nil), methods...),
		AllowedHeaders: append([]string(nil), headers...),
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
}

// SetBaseContext installs the process context. Once it is done, offload
// requests are refused with 503.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}
