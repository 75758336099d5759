// Package middleware contains HTTP middleware functions
package middleware

import (
	"log"
	"net/http"
	"strings"
)

// AllowedOriginsMap stores allowed origins for quick lookups.
var AllowedOriginsMap map[string]bool

// InitCORS initializes the CORS configuration.
func InitCORS(allowedOrigins []string) {
	AllowedOriginsMap = make(map[string]bool)
	hasWildcard := false
	for _, origin := range allowedOrigins {
		trimmedOrigin := strings.TrimSpace(origin)
		if trimmedOrigin == "*" {
			hasWildcard = true
			break // Wildcard overrides specific origins
		}
		if trimmedOrigin != "" {
			AllowedOriginsMap[trimmedOrigin] = true
		}
	}
	if hasWildcard {
		AllowedOriginsMap = map[string]bool{"*": true}
		log.Println("CORS initialized: Allowing all origins (*)")
	} else {
		log.Printf("CORS initialized: Allowing specific origins: %v", allowedOrigins)
	}
}

// CORS middleware handles Cross-Origin Resource Sharing headers.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		originAllowed := false
		allowOriginValue := ""

		if AllowedOriginsMap["*"] {
			originAllowed = true
			allowOriginValue = "*"
		} else if origin != "" && AllowedOriginsMap[origin] {
			originAllowed = true
			allowOriginValue = origin // Reflect the specific origin
			// Vary header is required when reflecting specific origins
			w.Header().Add("Vary", "Origin")
		}

		if origin != "" && originAllowed {
			w.Header().Set("Access-Control-Allow-Origin", allowOriginValue)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		// Handle preflight (OPTIONS) requests
		if r.Method == http.MethodOptions {
			if origin != "" && originAllowed {
				w.WriteHeader(http.StatusOK)
			} else {
				http.Error(w, "CORS preflight check failed", http.StatusForbidden)
			}
			return
		}

		// For actual requests: if an origin was provided but not allowed, block it.
		if origin != "" && !originAllowed {
			http.Error(w, "CORS origin not allowed", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
