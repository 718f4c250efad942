// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig               `mapstructure:"app"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Database       DatabaseConfig          `mapstructure:"database"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	Telegram       TelegramConfig          `mapstructure:"telegram"`
	HH             HHConfig                `mapstructure:"hh"`
	Classification ClassificationConfig    `mapstructure:"classification"`
	Scheduler      SchedulerConfig         `mapstructure:"scheduler"`
	Distribution   DistributionConfig      `mapstructure:"distribution"`
	Reports        ReportsConfig           `mapstructure:"reports"`
	Integrations   IntegrationConfig       `mapstructure:"integrations"`
	Server         ServerConfig            `mapstructure:"server"`
	Observability  ObservabilityConfig     `mapstructure:"observability"`
	Logging        LoggingConfig           `mapstructure:"logging"`
	Registry       RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	URL           string   `mapstructure:"url"`
	PostingsIndex string   `mapstructure:"postings_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Domain Sections ---

// TelegramConfig holds bot credentials and delivery pacing.
type TelegramConfig struct {
	Token            string  `mapstructure:"token"`
	WebhookSecret    string  `mapstructure:"webhook_secret"`
	SendRatePerSec   float64 `mapstructure:"send_rate_per_sec"`
	SendBurst        int     `mapstructure:"send_burst"`
	SuperuserIDs     []int64 `mapstructure:"superuser_ids"`
	UpdateProcessID  string  `mapstructure:"update_process_id"`
	SessionTTLMillis int     `mapstructure:"session_ttl"` // milliseconds
}

// HHConfig holds the hh.ru search API settings.
type HHConfig struct {
	BaseURL           string   `mapstructure:"base_url"`
	UserAgent         string   `mapstructure:"user_agent"`
	Text              string   `mapstructure:"text"`
	SearchFields      []string `mapstructure:"search_fields"`
	Experience        []string `mapstructure:"experience"`
	Employment        []string `mapstructure:"employment"`
	Area              string   `mapstructure:"area"`
	ProfessionalRole  string   `mapstructure:"professional_role"`
	Label             string   `mapstructure:"label"`
	PerPage           int      `mapstructure:"per_page"`
	PeriodDays        int      `mapstructure:"period"`
	OrderBy           string   `mapstructure:"order_by"`
	RequestsPerSecond float64  `mapstructure:"requests_per_sec"`
	Timeout           int      `mapstructure:"timeout"` // milliseconds
	FetchConcurrency  int      `mapstructure:"fetch_concurrency"`
}

type ClassificationConfig struct {
	EmptyEmployerDefault string `mapstructure:"empty_employer_default"`
}

type SchedulerConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Spec      string `mapstructure:"spec"`
	Timezone  string `mapstructure:"timezone"`
	ProcessID string `mapstructure:"process_id"`
	RunOnBoot bool   `mapstructure:"run_on_boot"`
}

type DistributionConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ReportsConfig controls the end-of-run operator report.
type ReportsConfig struct {
	Recipients  []string `mapstructure:"recipients"`
	AlertTopic  string   `mapstructure:"alert_topic_arn"`
	AlertOnZero bool     `mapstructure:"alert_on_zero_ingested"`
}

// IntegrationConfig holds settings for external services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled bool `mapstructure:"enabled"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// RegistryConfig points at the activity registry used for input validation.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
