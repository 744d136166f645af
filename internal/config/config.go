// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Channel   ChannelConfig   `mapstructure:"channel"`
	Protocol  ProtocolConfig  `mapstructure:"protocol"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig represents the exchange journal database
type DatabaseConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"dbname"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	MigrationsPath string        `mapstructure:"migrations_path"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// JournalConfig controls how long exchanges are kept
type JournalConfig struct {
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MemoryCapacity  int           `mapstructure:"memory_capacity"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig represents prometheus exposition
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ChannelConfig represents the channel table and resend policy
type ChannelConfig struct {
	MaxChannels         int           `mapstructure:"max_channels"`
	DefaultTimeout      time.Duration `mapstructure:"default_timeout"`
	MaxRetry            int           `mapstructure:"max_retry"`
	MaxMessageSize      int           `mapstructure:"max_message_size"`
	SettleDelay         time.Duration `mapstructure:"settle_delay"`
	ProbeCommand        string        `mapstructure:"probe_command"`
	HonorConnectTimeout bool          `mapstructure:"honor_connect_timeout"`
}

// ProtocolConfig represents the octet I/O layer and its named ports
type ProtocolConfig struct {
	InputEOS  string                    `mapstructure:"input_eos"`
	OutputEOS string                    `mapstructure:"output_eos"`
	Ports     map[string]EndpointConfig `mapstructure:"ports"`
}

// EndpointConfig describes how a named port reaches the controller
type EndpointConfig struct {
	Type string `mapstructure:"type"`

	// tcp
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	SSL            bool          `mapstructure:"ssl"`
	KeepAlive      bool          `mapstructure:"keep_alive"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	// serial
	Device   string `mapstructure:"device"`
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	StopBits int    `mapstructure:"stop_bits"`
	Parity   string `mapstructure:"parity"`

	// usb
	VendorID  string `mapstructure:"vendor_id"`
	ProductID string `mapstructure:"product_id"`
	Interface int    `mapstructure:"interface"`
	Endpoint  int    `mapstructure:"endpoint"`

	// per-port terminator overrides
	InputEOS  *string `mapstructure:"input_eos"`
	OutputEOS *string `mapstructure:"output_eos"`
}

// DiscoveryConfig controls controller discovery
type DiscoveryConfig struct {
	NetworkRanges  []string      `mapstructure:"network_ranges"`
	Ports          []int         `mapstructure:"ports"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	ScanTimeout    time.Duration `mapstructure:"scan_timeout"`
	Concurrency    int           `mapstructure:"concurrency"`
	MaxHosts       int           `mapstructure:"max_hosts"`
	DefaultAddr    int           `mapstructure:"default_addr"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// Endpoint types accepted in protocol.ports
const (
	EndpointTCP    = "tcp"
	EndpointSerial = "serial"
	EndpointUSB    = "usb"
)

// Load loads configuration from file and environment variables. A missing
// config file is not an error; defaults and environment apply.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{".", "./config", "./internal/config", "../../internal/config"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	// Environment variable support
	v.SetEnvPrefix("MOTION_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8086")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.tls.enabled", false)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "motion_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "migrations")
	v.SetDefault("database.auto_migrate", true)

	// Journal defaults
	v.SetDefault("journal.retention", "168h")
	v.SetDefault("journal.cleanup_interval", "1h")
	v.SetDefault("journal.memory_capacity", 5000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Channel defaults
	v.SetDefault("channel.max_channels", 50)
	v.SetDefault("channel.default_timeout", "200ms")
	v.SetDefault("channel.max_retry", 5)
	v.SetDefault("channel.max_message_size", 256)
	v.SetDefault("channel.settle_delay", "20ms")
	v.SetDefault("channel.probe_command", "FirmwareVersionGet (char *)")
	v.SetDefault("channel.honor_connect_timeout", false)

	// Protocol defaults
	v.SetDefault("protocol.input_eos", ",EndOfAPI")
	v.SetDefault("protocol.output_eos", "")

	// Discovery defaults
	v.SetDefault("discovery.ports", []int{5001})
	v.SetDefault("discovery.connect_timeout", "300ms")
	v.SetDefault("discovery.probe_timeout", "1s")
	v.SetDefault("discovery.scan_timeout", "60s")
	v.SetDefault("discovery.concurrency", 32)
	v.SetDefault("discovery.max_hosts", 1024)
	v.SetDefault("discovery.default_addr", 5001)

	// App defaults
	v.SetDefault("app.name", "motion-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required when database is enabled")
	}

	if !contains([]string{"development", "staging", "production", "test"}, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: development, staging, production, test")
	}

	if !contains([]string{"debug", "info", "warn", "error", "fatal"}, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, fatal")
	}

	if config.Channel.MaxChannels <= 0 {
		return fmt.Errorf("channel.max_channels must be positive")
	}
	if config.Channel.MaxRetry <= 0 {
		return fmt.Errorf("channel.max_retry must be positive")
	}
	if config.Channel.MaxMessageSize <= 0 {
		return fmt.Errorf("channel.max_message_size must be positive")
	}
	if config.Channel.DefaultTimeout <= 0 {
		return fmt.Errorf("channel.default_timeout must be positive")
	}

	for name, ep := range config.Protocol.Ports {
		switch ep.Type {
		case EndpointTCP:
			if ep.Host == "" {
				return fmt.Errorf("protocol.ports.%s.host is required", name)
			}
		case EndpointSerial:
			if ep.Device == "" {
				return fmt.Errorf("protocol.ports.%s.device is required", name)
			}
		case EndpointUSB:
			if ep.VendorID == "" || ep.ProductID == "" {
				return fmt.Errorf("protocol.ports.%s.vendor_id and product_id are required", name)
			}
		default:
			return fmt.Errorf("protocol.ports.%s.type must be one of: tcp, serial, usb", name)
		}
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
