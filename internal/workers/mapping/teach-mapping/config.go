// internal/workers/mapping/teach-mapping/config.go
package teachmapping

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
