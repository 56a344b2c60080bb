package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/wealthguardian-backend/api/responses"
)

// TokenHeader carries a freshly minted access token on auth responses.
const TokenHeader = "X-WG-Token"

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", TokenHeader, IdempotencyHeader, "X-Requested-With"},
		ExposedHeaders:   []string{TokenHeader, responses.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
