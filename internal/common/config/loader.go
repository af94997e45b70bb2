// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the flat environment variables used by deployments.
var envBindings = map[string][]string{
	"http.addr":                           {"HTTP_ADDR"},
	"mail.provider":                       {"MAIL_PROVIDER"},
	"mail.from":                           {"MAIL_FROM", "SMTP_FROM"},
	"mail.smtp.host":                      {"SMTP_HOST"},
	"mail.smtp.port":                      {"SMTP_PORT"},
	"mail.smtp.username":                  {"SMTP_USER"},
	"mail.smtp.password":                  {"SMTP_PASSWORD"},
	"mail.recipients.contact":             {"CONTACT_EMAIL"},
	"mail.recipients.quote":               {"QUOTE_EMAIL"},
	"mail.recipients.internship":          {"INTERNSHIP_EMAIL"},
	"database.postgres.host":              {"DB_HOST"},
	"database.postgres.port":              {"DB_PORT"},
	"database.postgres.database":          {"DB_NAME"},
	"database.postgres.user":              {"DB_USER"},
	"database.postgres.password":          {"DB_PASSWORD"},
	"database.redis.address":              {"REDIS_ADDRESS"},
	"database.redis.password":             {"REDIS_PASSWORD"},
	"database.redis.pool_size":            {"REDIS_POOL_SIZE"},
	"database.elasticsearch.url":          {"ELASTICSEARCH_URL"},
	"auth.keycloak.url":                   {"KEYCLOAK_URL"},
	"auth.keycloak.realm":                 {"KEYCLOAK_REALM"},
	"auth.keycloak.client_id":             {"KEYCLOAK_CLIENT_ID"},
	"auth.keycloak.client_secret":         {"KEYCLOAK_CLIENT_SECRET"},
	"integrations.zoho.oauth_token":       {"ZOHO_CRM_OAUTH_TOKEN"},
	"integrations.aws.region":             {"AWS_REGION"},
	"integrations.aws.sns.alert_phone":    {"SALES_ALERT_PHONE"},
	"camunda.broker_address":              {"ZEEBE_ADDRESS"},
	"logging.level":                       {"LOG_LEVEL"},
	"logging.format":                      {"LOG_FORMAT"},
}

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml and applies env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func bindEnv(v *viper.Viper) error {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in YAML values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "iiot-site"
	}

	// HTTP defaults
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 12 << 20
	}
	if cfg.HTTP.MaxMemoryBytes == 0 {
		cfg.HTTP.MaxMemoryBytes = 8 << 20
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}
	if cfg.Database.Redis.MinIdleConns == 0 {
		cfg.Database.Redis.MinIdleConns = 2
	}
	if cfg.Database.Redis.DialTimeout == 0 {
		cfg.Database.Redis.DialTimeout = 5000
	}
	if cfg.Database.Redis.IOTimeout == 0 {
		cfg.Database.Redis.IOTimeout = 3000
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "products"
	}

	// Mail defaults
	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = "smtp"
	}
	if cfg.Mail.SMTP.Port == 0 {
		cfg.Mail.SMTP.Port = 587
	}
	if cfg.Mail.SMTP.ConnectTimeout == 0 {
		cfg.Mail.SMTP.ConnectTimeout = 10000
	}
	if cfg.Mail.SMTP.SocketTimeout == 0 {
		cfg.Mail.SMTP.SocketTimeout = 15000
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.SMTP.Username
	}

	// Outbox defaults
	if cfg.Outbox.Key == "" {
		cfg.Outbox.Key = "outbox:notifications"
	}
	if cfg.Outbox.Interval == 0 {
		cfg.Outbox.Interval = 30000
	}
	if cfg.Outbox.MaxAttempts == 0 {
		cfg.Outbox.MaxAttempts = 5
	}

	// Catalog defaults
	if cfg.Catalog.CacheTTL == 0 {
		cfg.Catalog.CacheTTL = 600000
	}
	if cfg.Catalog.DefaultPageSize == 0 {
		cfg.Catalog.DefaultPageSize = 12
	}
	if cfg.Catalog.MaxPageSize == 0 {
		cfg.Catalog.MaxPageSize = 48
	}

	if cfg.Auth.Keycloak.AdminRole == "" {
		cfg.Auth.Keycloak.AdminRole = "site-admin"
	}

	if cfg.Integrations.Zoho.BaseURL == "" {
		cfg.Integrations.Zoho.BaseURL = "https://www.zohoapis.com/crm/v3"
	}
	if cfg.Integrations.Zoho.LeadSource == "" {
		cfg.Integrations.Zoho.LeadSource = "Website Quote Form"
	}
	if cfg.Integrations.AWS.SNS.HotTimeline == "" {
		cfg.Integrations.AWS.SNS.HotTimeline = "immediate"
	}

	if cfg.Camunda.MessageName == "" {
		cfg.Camunda.MessageName = "submission-received"
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 5000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	switch cfg.Mail.Provider {
	case "smtp":
		if cfg.Mail.SMTP.Host == "" {
			return fmt.Errorf("mail.smtp.host is required")
		}
	case "ses":
		if cfg.Integrations.AWS.Region == "" {
			return fmt.Errorf("integrations.aws.region is required for the ses mail provider")
		}
	default:
		return fmt.Errorf("mail.provider must be smtp or ses, got %q", cfg.Mail.Provider)
	}
	if cfg.Mail.From == "" {
		return fmt.Errorf("mail.from is required")
	}
	if cfg.Mail.Recipients.Contact == "" {
		return fmt.Errorf("mail.recipients.contact is required as the fallback recipient")
	}

	if cfg.Outbox.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when the outbox is enabled")
	}
	if cfg.Database.Elasticsearch.Enabled && len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	if cfg.Catalog.DefaultPageSize > cfg.Catalog.MaxPageSize {
		return fmt.Errorf("catalog.default_page_size must not exceed catalog.max_page_size")
	}

	return nil
}
