package config

import (
	"time"
)

// GetTimeout returns the fetch timeout as time.Duration
func (s *SourceSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 10 * time.Second // default 10 seconds
	}
	return time.Duration(s.Timeout) * time.Second
}

// GetTimeout returns the webhook delivery timeout as time.Duration
func (s *NotifySettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 10 * time.Second // default 10 seconds
	}
	return time.Duration(s.Timeout) * time.Second
}

// GetRateInterval returns the minimum spacing between webhook posts
func (s *NotifySettings) GetRateInterval() time.Duration {
	if s.RatePerMinute <= 0 {
		return 2 * time.Second // default 30 posts per minute
	}
	return time.Minute / time.Duration(s.RatePerMinute)
}
