// internal/workers/nlq/synthesize-query/config.go
package synthesizequery

import "time"

type Config struct {
	Timeout        time.Duration
	Temperature    float64
	MaxTokens      int64
	MaxQueryLength int
	// StrictAssignee turns an unresolved assignee name into
	// NeedUserMapping instead of a literal clause.
	StrictAssignee bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        150 * time.Second,
		Temperature:    0.3,
		MaxTokens:      200,
		MaxQueryLength: 300,
	}
}
