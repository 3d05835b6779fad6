// internal/workers/nlq/classify-intent/config.go
package classifyintent

import "time"

type Config struct {
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     150 * time.Second,
		Temperature: 0.1,
		MaxTokens:   300,
	}
}
