package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultJWTSecret = "change-this-secret-in-production"
)

// Config holds all API service configuration
type Config struct {
	Server            ServerConfig   `json:"server"`
	Database          DatabaseConfig `json:"database"`
	Auth              AuthConfig     `json:"auth"`
	Logging           LoggingConfig  `json:"logging"`
	CORS              CORSConfig     `json:"cors"`
	Alerting          AlertingConfig `json:"alerting"`
	Events            EventsConfig   `json:"events"`
	InternalAPISecret string         `json:"internal_api_secret"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver   string `json:"driver"` // postgres or sqlite
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	Path     string `json:"path"` // sqlite file, ":memory:" for an in-process database
	MaxConns int    `json:"max_conns"`
	MinConns int    `json:"min_conns"`
}

// MQTTConfig holds MQTT-related configuration
type MQTTConfig struct {
	BrokerHost        string        `json:"broker_host"`
	BrokerPort        int           `json:"broker_port"`
	BrokerUser        string        `json:"broker_user"`
	BrokerPass        string        `json:"broker_pass"`
	UseTLS            bool          `json:"use_tls"`
	CACertPath        string        `json:"ca_cert_path"`
	Topic             string        `json:"topic"`
	QoS               byte          `json:"qos"`
	ClientID          string        `json:"client_id"`
	SharedGroup       string        `json:"shared_group"`
	KeepAlive         time.Duration `json:"keep_alive"`
	PingTimeout       time.Duration `json:"ping_timeout"`
	ReconnectInterval time.Duration `json:"reconnect_interval"`
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	JWTSecretKey               string        `json:"jwt_secret_key"`
	JWTIssuer                  string        `json:"jwt_issuer"`
	AccessTokenDuration        time.Duration `json:"access_token_duration"`
	RefreshTokenDuration       time.Duration `json:"refresh_token_duration"`
	PasswordMinLength          int           `json:"password_min_length"`
	PasswordRequireSpecialChar bool          `json:"password_require_special_char"`
	SecureCookies              bool          `json:"secure_cookies"`
	Admin                      AdminConfig   `json:"admin"`
}

// AdminConfig holds admin user configuration
type AdminConfig struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout, stderr, or file path
	EnableCaller bool   `json:"enable_caller"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// AlertingConfig holds the outbound notification settings
type AlertingConfig struct {
	// EqualityEpsilon is the tolerance used by the "equal" condition. Zero means exact comparison.
	EqualityEpsilon float64        `json:"equality_epsilon"`
	SMTP            SMTPConfig     `json:"smtp"`
	Telegram        TelegramConfig `json:"telegram"`
}

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	From     string        `json:"from"`
	Timeout  time.Duration `json:"timeout"`
	// FailureThreshold relay outages in a row open the mail breaker for ResetTimeout
	FailureThreshold int           `json:"failure_threshold"`
	ResetTimeout     time.Duration `json:"reset_timeout"`
}

// TelegramConfig holds bot settings
type TelegramConfig struct {
	BotToken         string        `json:"bot_token"`
	APIURL           string        `json:"api_url"`
	Timeout          time.Duration `json:"timeout"`
	FailureThreshold int           `json:"failure_threshold"`
	ResetTimeout     time.Duration `json:"reset_timeout"`
}

// EventsConfig holds the optional Kafka fan-out settings
type EventsConfig struct {
	KafkaBrokers  []string `json:"kafka_brokers"`
	ReadingsTopic string   `json:"readings_topic"`
}

// Enabled reports whether readings should be published to Kafka
func (e EventsConfig) Enabled() bool {
	return len(e.KafkaBrokers) > 0
}

// IngestorConfig holds configuration for the MQTT Ingestor service
type IngestorConfig struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Logging  LoggingConfig  `json:"logging"`
	Alerting AlertingConfig `json:"alerting"`
	Events   EventsConfig   `json:"events"`
}

// LoadIngestorConfig loads configuration for the MQTT Ingestor service
func LoadIngestorConfig() (*IngestorConfig, error) {
	r, err := newReader()
	if err != nil {
		return nil, err
	}

	config := &IngestorConfig{
		Server: ServerConfig{
			Port:         r.getEnv("INGESTOR_PORT", "9003"),
			ReadTimeout:  r.getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: r.getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  r.getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Database: r.database(),
		MQTT: MQTTConfig{
			BrokerHost:        r.getEnv("BROKER_HOST", "localhost"),
			BrokerPort:        r.getInt("BROKER_PORT", 1883),
			BrokerUser:        r.getEnv("BROKER_USER", ""),
			BrokerPass:        r.getEnv("BROKER_PASS", ""),
			UseTLS:            r.getBool("BROKER_TLS", false),
			CACertPath:        r.getEnv("BROKER_CA_FILE", ""),
			Topic:             r.getEnv("MQTT_TOPIC", "#"),
			QoS:               r.getQoS("MQTT_QOS", 0),
			ClientID:          r.getEnv("MQTT_CLIENT_ID", "mqtt-ingestor"),
			SharedGroup:       r.getEnv("MQTT_SHARED_GROUP", ""),
			KeepAlive:         r.getDuration("MQTT_KEEP_ALIVE", 30*time.Second),
			PingTimeout:       r.getDuration("MQTT_PING_TIMEOUT", 10*time.Second),
			ReconnectInterval: r.getDuration("MQTT_RECONNECT_INTERVAL", 5*time.Second),
		},
		Logging:  r.logging(),
		Alerting: r.alerting(),
		Events:   r.events(),
	}

	if err := r.err(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadApiConfig loads configuration for the API service
func LoadApiConfig() (*Config, error) {
	r, err := newReader()
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:         r.getEnv("PORT", "9002"),
			ReadTimeout:  r.getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: r.getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  r.getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Database: r.database(),
		Auth: AuthConfig{
			JWTSecretKey:               r.getEnv("JWT_SECRET_KEY", defaultJWTSecret),
			JWTIssuer:                  r.getEnv("JWT_ISSUER", "mpt-api-service"),
			AccessTokenDuration:        r.getDuration("JWT_ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration:       r.getDuration("JWT_REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			PasswordMinLength:          r.getInt("PASSWORD_MIN_LENGTH", 8),
			PasswordRequireSpecialChar: r.getBool("PASSWORD_REQUIRE_SPECIAL_CHAR", false),
			SecureCookies:              r.getBool("COOKIE_SECURE", false),
			Admin: AdminConfig{
				Username: r.getEnv("ADMIN_USERNAME", "admin"),
				Email:    r.getEnv("ADMIN_EMAIL", "admin@example.com"),
				Password: r.getEnv("ADMIN_PASSWORD", "adminpassword123"),
			},
		},
		Logging: r.logging(),
		CORS: CORSConfig{
			AllowedOrigins:   r.getStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   r.getStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   r.getStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "token"}),
			ExposedHeaders:   r.getStringSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length"}),
			AllowCredentials: r.getBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           r.getInt("CORS_MAX_AGE", 43200), // 12 hours
		},
		Alerting:          r.alerting(),
		Events:            r.events(),
		InternalAPISecret: r.getEnv("INTERNAL_API_SECRET", ""),
	}

	if err := r.err(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// Validate validates the API configuration
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Alerting.Validate(); err != nil {
		return err
	}
	if c.Auth.JWTSecretKey == defaultJWTSecret {
		log.Println("WARNING: Using default JWT secret key. Change JWT_SECRET_KEY in production!")
	}
	if c.Auth.PasswordMinLength < 6 {
		return fmt.Errorf("password minimum length must be at least 6")
	}
	return nil
}

// Validate validates the ingestor configuration
func (c *IngestorConfig) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Alerting.Validate(); err != nil {
		return err
	}
	if c.MQTT.Topic == "" {
		return fmt.Errorf("MQTT_TOPIC must not be empty")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2")
	}
	if c.MQTT.ReconnectInterval <= 0 {
		return fmt.Errorf("MQTT_RECONNECT_INTERVAL must be positive")
	}
	return nil
}

// Validate checks the driver specific settings
func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverPostgres:
		if d.User == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
		if d.Password == "" {
			return fmt.Errorf("POSTGRES_PASSWORD is required")
		}
	case DriverSQLite:
		if d.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", d.Driver)
	}
	return nil
}

// Validate rejects tolerances that would make "equal" meaningless
func (a AlertingConfig) Validate() error {
	if a.EqualityEpsilon < 0 {
		return fmt.Errorf("ALERT_EQUALITY_EPSILON must not be negative")
	}
	return nil
}

// DSN returns the driver specific connection string
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_time_format=sqlite", d.Path)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *IngestorConfig) GetMQTTBrokerURL() string {
	return c.MQTT.BrokerURL()
}

// BrokerURL returns the broker address with a tcp or tls scheme
func (m MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	if m.UseTLS {
		scheme = "tls"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, m.BrokerHost, m.BrokerPort)
}

// reader resolves keys from the environment first, then an optional
// config file named by CONFIG_FILE, then the supplied default.
type reader struct {
	v    *viper.Viper
	errs []error
}

func newReader() (*reader, error) {
	// .env is optional; variables may be set directly
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return &reader{v: v}, nil
}

func (r *reader) err() error {
	return errors.Join(r.errs...)
}

func (r *reader) database() DatabaseConfig {
	return DatabaseConfig{
		Driver:   strings.ToLower(r.getEnv("DB_DRIVER", DriverPostgres)),
		Host:     r.getEnv("POSTGRES_HOST", "localhost"),
		Port:     r.getInt("POSTGRES_PORT", 5432),
		User:     r.getEnv("POSTGRES_USER", ""),
		Password: r.getEnv("POSTGRES_PASSWORD", ""),
		DBName:   r.getEnv("POSTGRES_DB", "iot"),
		SSLMode:  r.getEnv("POSTGRES_SSLMODE", "disable"),
		Path:     r.getEnv("SQLITE_PATH", "device_manager.db"),
		MaxConns: r.getInt("POSTGRES_MAX_CONNS", 25),
		MinConns: r.getInt("POSTGRES_MIN_CONNS", 5),
	}
}

func (r *reader) logging() LoggingConfig {
	return LoggingConfig{
		Level:        r.getEnv("LOG_LEVEL", "info"),
		Format:       r.getEnv("LOG_FORMAT", "text"),
		Output:       r.getEnv("LOG_OUTPUT", "stdout"),
		EnableCaller: r.getBool("LOG_ENABLE_CALLER", false),
	}
}

func (r *reader) alerting() AlertingConfig {
	return AlertingConfig{
		EqualityEpsilon: r.getFloat("ALERT_EQUALITY_EPSILON", 0),
		SMTP: SMTPConfig{
			Host:     r.getEnv("SMTP_HOST", ""),
			Port:     r.getInt("SMTP_PORT", 587),
			Username: r.getEnv("SMTP_USERNAME", ""),
			Password: r.getEnv("SMTP_PASSWORD", ""),
			From:     r.getEnv("SMTP_FROM", "alerts@localhost"),
			Timeout:  r.getDuration("SMTP_TIMEOUT", 15*time.Second),

			FailureThreshold: r.getInt("SMTP_FAILURE_THRESHOLD", 5),
			ResetTimeout:     r.getDuration("SMTP_RESET_TIMEOUT", 60*time.Second),
		},
		Telegram: TelegramConfig{
			BotToken:         r.getEnv("TELEGRAM_BOT_TOKEN", ""),
			APIURL:           r.getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
			Timeout:          r.getDuration("TELEGRAM_TIMEOUT", 30*time.Second),
			FailureThreshold: r.getInt("TELEGRAM_FAILURE_THRESHOLD", 5),
			ResetTimeout:     r.getDuration("TELEGRAM_RESET_TIMEOUT", 60*time.Second),
		},
	}
}

func (r *reader) events() EventsConfig {
	return EventsConfig{
		KafkaBrokers:  r.getStringSlice("KAFKA_BROKERS", nil),
		ReadingsTopic: r.getEnv("KAFKA_READINGS_TOPIC", "sensor-readings"),
	}
}

// Helper functions for parsing

func (r *reader) getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(r.v.GetString(key)); value != "" {
		return value
	}
	return defaultValue
}

func (r *reader) getInt(key string, defaultValue int) int {
	value := r.getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return intValue
}

// getQoS range-checks before narrowing so 256 cannot wrap to 0
func (r *reader) getQoS(key string, defaultValue byte) byte {
	value := r.getInt(key, int(defaultValue))
	if value < 0 || value > 2 {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %d (must be 0, 1 or 2)", key, value))
		return defaultValue
	}
	return byte(value)
}

func (r *reader) getFloat(key string, defaultValue float64) float64 {
	value := r.getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return f
}

func (r *reader) getBool(key string, defaultValue bool) bool {
	value := r.getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	r.errs = append(r.errs, fmt.Errorf("invalid %s: %q (expected true/false or 1/0)", key, value))
	return defaultValue
}

func (r *reader) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := r.getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return duration
}

func (r *reader) getStringSlice(key string, defaultValue []string) []string {
	value := r.getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
