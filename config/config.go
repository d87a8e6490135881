package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"servicehub/utils"

	"github.com/joho/godotenv"
)

// Config is built once at startup and passed to every component. It is never
// mutated afterwards.
type Config struct {
	// Broker connection
	RMQUser     string
	RMQPassword string
	RMQHost     string
	RMQPort     int
	RMQVHost    string
	RMQParams   string
	RMQPrefetch int

	// Broker topology
	Exchange             string
	ExchangeType         string
	DelayedExchange      string
	RequestQueue         string
	ServiceResponseQueue string
	FailTableQueue       string
	TimeoutQueue         string

	// Postgres
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresPoolSize int
	PostgresSSLMode  string

	// Allow-lists
	AvailableServices []int32
	AvailableSystems  []int32

	// Process
	HTTPAddr        string
	AllowedOrigins  string
	LogLevel        string
	LogFormat       string
	ConnectRetries  int
	JWTSecret       string
	RateLimitMax    int
	RateLimitWindow int
}

// Load reads the configuration from the environment. envFile is loaded first
// when given; without it a .env in the working directory is used if present.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		RMQUser:     os.Getenv("RMQ_USER"),
		RMQPassword: os.Getenv("RMQ_PASSWORD"),
		RMQHost:     os.Getenv("RMQ_HOST"),
		RMQPort:     utils.EnvInt("RMQ_PORT", 5672),
		RMQVHost:    utils.EnvString("RMQ_VHOST", "/"),
		RMQParams:   os.Getenv("RMQ_PARAMS"),
		RMQPrefetch: utils.EnvInt("RMQ_PREFETCH", 1),

		Exchange:             os.Getenv("RMQ_EXCHANGE"),
		ExchangeType:         strings.ToLower(utils.EnvString("RMQ_EXCHANGE_TYPE", "direct")),
		DelayedExchange:      utils.EnvString("RMQ_DELAYED_EXCHANGE", "delayed_exchange"),
		RequestQueue:         utils.EnvString("RMQ_REQUEST_QUEUE", "servicehub.q.request"),
		ServiceResponseQueue: utils.EnvString("RMQ_SERVICE_RESPONSE_QUEUE", "servicehub.q.service_response"),
		FailTableQueue:       utils.EnvString("RMQ_FAIL_TABLE_QUEUE", "servicehub.q.fail_table"),
		TimeoutQueue:         utils.EnvString("RMQ_TIMEOUT_QUEUE", "timeout_requests"),

		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     utils.EnvInt("POSTGRES_PORT", 5432),
		PostgresDB:       utils.EnvString("POSTGRES_DB", "servicehub"),
		PostgresUser:     utils.EnvString("POSTGRES_USER", "servicehub"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresPoolSize: utils.EnvInt("POSTGRES_POOL_SIZE", 5),
		PostgresSSLMode:  utils.EnvString("POSTGRES_SSLMODE", "disable"),

		HTTPAddr:        utils.EnvString("HTTP_ADDR", ":8080"),
		AllowedOrigins:  utils.EnvString("ALLOWED_ORIGINS", "*"),
		LogLevel:        utils.EnvString("LOG_LEVEL", "info"),
		LogFormat:       utils.EnvString("LOG_FORMAT", "json"),
		ConnectRetries:  utils.EnvInt("CONNECT_RETRIES", 5),
		JWTSecret:       os.Getenv("JWT_SECRET_KEY"),
		RateLimitMax:    utils.EnvInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: utils.EnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
	}

	var err error
	if cfg.AvailableServices, err = utils.ParseIDList(os.Getenv("AVAILABLE_SERVICES")); err != nil {
		return nil, fmt.Errorf("AVAILABLE_SERVICES: %w", err)
	}
	systems := os.Getenv("AVAILABLE_SYSTEMS")
	if systems == "" {
		systems = os.Getenv("AVAILABLE_USERS")
	}
	if cfg.AvailableSystems, err = utils.ParseIDList(systems); err != nil {
		return nil, fmt.Errorf("AVAILABLE_SYSTEMS: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	required := map[string]string{
		"RMQ_USER":          c.RMQUser,
		"RMQ_PASSWORD":      c.RMQPassword,
		"RMQ_HOST":          c.RMQHost,
		"RMQ_EXCHANGE":      c.Exchange,
		"POSTGRES_HOST":     c.PostgresHost,
		"POSTGRES_PASSWORD": c.PostgresPassword,
	}
	for key, val := range required {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.PostgresPoolSize <= 0 {
		return errors.New("POSTGRES_POOL_SIZE must be positive")
	}
	return nil
}

// PostgresDSN builds the key/value DSN understood by the pgx driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode)
}

// AMQPURL builds the broker URL; the vhost is path-escaped so "/" becomes "%2F".
func (c *Config) AMQPURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RMQUser, c.RMQPassword),
		Host:   fmt.Sprintf("%s:%d", c.RMQHost, c.RMQPort),
	}
	return u.String() + "/" + url.PathEscape(c.RMQVHost) + c.RMQParams
}

func (c *Config) ServiceAllowed(id int32) bool {
	return slices.Contains(c.AvailableServices, id)
}

func (c *Config) SystemAllowed(id int32) bool {
	return slices.Contains(c.AvailableSystems, id)
}
