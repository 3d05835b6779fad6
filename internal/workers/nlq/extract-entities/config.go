// internal/workers/nlq/extract-entities/config.go
package extractentities

import "time"

type Config struct {
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     150 * time.Second,
		Temperature: 0.0,
		MaxTokens:   100,
	}
}
