package api

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/granforum/forum/webutil"
)

// corsMiddleware allows any origin: the web client may be served from another host
// and the API carries no credentials.
func corsMiddleware() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			webutil.HeaderSignature,
		},
		MaxAge: 300, // 5 minutes
	})
}
