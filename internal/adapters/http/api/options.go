package api

import (
	"time"

	"github.com/okian/udrf/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins enables CORS for the given origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, o := range origins {
			if o != "" {
				s.origins = append(s.origins, o)
			}
		}
	}
}

// WithRequestTimeout bounds the handling time of each request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}
