// internal/workers/dictionary/refresh-dictionaries/config.go
package refreshdictionaries

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
