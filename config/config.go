package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"

	FieldSetFull    = "full"
	FieldSetCompact = "compact"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Backend   BackendConfig   `yaml:"backend"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Session   SessionConfig   `yaml:"session"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Address     string `yaml:"address" validate:"required"`
	DocsEnabled bool   `yaml:"docs_enabled"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

// BackendConfig points at the hosted backend-as-a-service. Driver selects how
// the bookings collection is read: through its REST API or straight from Postgres.
type BackendConfig struct {
	Driver         string `yaml:"driver" validate:"oneof=rest postgres"`
	URL            string `yaml:"url" validate:"required,url"`
	AnonKey        string `yaml:"anon_key" validate:"required"`
	Table          string `yaml:"table" validate:"required"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1"`
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig backs the session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig carries audit events. With no brokers, auditing is disabled.
type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	AuditTopic string   `yaml:"audit_topic"`
	GroupID    string   `yaml:"group_id"`
}

type SessionConfig struct {
	CookieName        string `yaml:"cookie_name" validate:"required"`
	TTLMinutes        int    `yaml:"ttl_minutes" validate:"gte=1"`
	SecureCookie      bool   `yaml:"secure_cookie"`
	VerifyWithBackend bool   `yaml:"verify_with_backend"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

type DashboardConfig struct {
	PageSize int    `yaml:"page_size" validate:"gte=1,lte=100"`
	FieldSet string `yaml:"field_set" validate:"oneof=full compact"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = DriverREST
	}
	if c.Backend.Table == "" {
		c.Backend.Table = "bookings"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if c.Kafka.AuditTopic == "" {
		c.Kafka.AuditTopic = "admin-audit"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "admin-audit-worker"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "admin_session"
	}
	if c.Session.TTLMinutes == 0 {
		c.Session.TTLMinutes = 8 * 60
	}
	if c.Dashboard.PageSize == 0 {
		c.Dashboard.PageSize = 10
	}
	if c.Dashboard.FieldSet == "" {
		c.Dashboard.FieldSet = FieldSetFull
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Secrets are usually injected by the environment rather than committed to the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("BACKEND_ANON_KEY"); v != "" {
		c.Backend.AnonKey = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

func (c *Config) Validate() error {
	validate := validator.New()

	var problems []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed on '%s' (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}

	if c.Backend.Driver == DriverPostgres && (c.Database.Host == "" || c.Database.Name == "") {
		problems = append(problems, "Config.Database host and name are required for the postgres driver")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
