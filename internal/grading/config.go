package grading

import "time"

// Config holds grading settings.
type Config struct {
	FeedbackMaxTokens int
	ChatMaxTokens     int
	Temperature       float64

	// RunCacheTTL is how long an execution result is reused for an
	// identical run request. Zero disables caching.
	RunCacheTTL time.Duration

	// ChatHistoryLimit caps how many client-held turns are forwarded.
	ChatHistoryLimit int
}

func DefaultConfig() Config {
	return Config{
		FeedbackMaxTokens: 600,
		ChatMaxTokens:     800,
		Temperature:       0.4,
		RunCacheTTL:       10 * time.Minute,
		ChatHistoryLimit:  20,
	}
}
