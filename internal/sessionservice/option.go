package sessionservice

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultCacheTTL     = 10 * time.Minute
	defaultCacheCleanup = 30 * time.Minute
)

// Option configures a Service.
type Option func(*Service)

// WithCache sets how long parsed sessions are kept and how often expired
// entries are purged.
func WithCache(ttl, cleanup time.Duration) Option {
	return func(s *Service) {
		s.parsed = cache.New(ttl, cleanup)
	}
}

// WithPattern restricts which vault files are treated as sessions.
func WithPattern(pattern string) Option {
	return func(s *Service) {
		if pattern != "" {
			s.pattern = pattern
		}
	}
}

// WithClock overrides the time source used for captures and new sessions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}
