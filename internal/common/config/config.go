package config

import "fmt"

type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Cache        CacheConfig             `mapstructure:"cache"`
	LLM          LLMConfig               `mapstructure:"llm"`
	Tracker      TrackerConfig           `mapstructure:"tracker"`
	Synthesis    SynthesisConfig         `mapstructure:"synthesis"`
	Conversation ConversationConfig      `mapstructure:"conversation"`
	Security     SecurityConfig          `mapstructure:"security"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int `mapstructure:"write_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	RegistryPath   string `mapstructure:"registry_path"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds the namespace prefix and per-use TTLs, all in seconds.
type CacheConfig struct {
	KeyPrefix      string `mapstructure:"key_prefix"`
	DefaultTTL     int    `mapstructure:"default_ttl"`
	MappingTTL     int    `mapstructure:"mapping_ttl"`
	DictionaryTTL  int    `mapstructure:"dictionary_ttl"`
	ResultTTL      int    `mapstructure:"result_ttl"`
	CredentialsTTL int    `mapstructure:"credentials_ttl"`
}

type LLMConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	ProxyToken string `mapstructure:"proxy_token"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	Disabled   bool   `mapstructure:"disabled"`
}

type TrackerConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxResults int    `mapstructure:"max_results"`
}

type SynthesisConfig struct {
	MaxQueryLength int  `mapstructure:"max_query_length"`
	StrictAssignee bool `mapstructure:"strict_assignee"`
	ReplyLimit     int  `mapstructure:"reply_limit"`
}

type ConversationConfig struct {
	Backend string `mapstructure:"backend"` // "redis" or "postgres"
	TTL     int    `mapstructure:"ttl"`     // seconds, redis backend only
}

type SecurityConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
