// Package cors sets cross-origin headers so browser players on another
// origin can reach the API and the HLS files.
package cors

import (
	"net/http"
	"strings"

	chicors "github.com/go-chi/cors"
)

// Config holds the CORS response header values.
type Config struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

// DefaultConfig returns a permissive configuration for origin.
func DefaultConfig(origin string) Config {
	if strings.TrimSpace(origin) == "" {
		origin = "*"
	}
	return Config{
		AllowOrigin:  origin,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Accept", "Origin", "Range"},
		MaxAge:       86400,
	}
}

// Options maps cfg onto go-chi/cors. Credentials are only allowed for an
// explicit origin; browsers reject them alongside "*".
func (c Config) Options() chicors.Options {
	return chicors.Options{
		AllowedOrigins:   []string{c.AllowOrigin},
		AllowedMethods:   c.AllowMethods,
		AllowedHeaders:   c.AllowHeaders,
		AllowCredentials: c.AllowOrigin != "*",
		MaxAge:           c.MaxAge,
	}
}

// Middleware answers preflight requests and decorates responses to
// cross-origin requests from the configured origin.
func Middleware(cfg Config) func(next http.Handler) http.Handler {
	return chicors.Handler(cfg.Options())
}
