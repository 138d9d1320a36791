package middleware

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
)

// CORS wraps the router with the cross-origin policy the dashboard needs.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
}

// RequestLogging logs every request in combined log format.
func RequestLogging(next http.Handler) http.Handler {
	return handlers.CombinedLoggingHandler(os.Stdout, next)
}
