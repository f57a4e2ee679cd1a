package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Billing     BillingConfig  `mapstructure:"billing"`
	Admin       AdminConfig    `mapstructure:"admin"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// BillingConfig contains billing engine settings. Monetary values are whole
// cents; the engine converts to micro-cents internally.
type BillingConfig struct {
	SignupCreditCents        int64         `mapstructure:"signupCreditCents"`
	FirstTopupBonusPercent   int64         `mapstructure:"firstTopupBonusPercent"`
	FirstTopupBonusCapCents  int64         `mapstructure:"firstTopupBonusCapCents"`
	PlatformFeeBps           int64         `mapstructure:"platformFeeBps"`
	MaxAmountCents           int64         `mapstructure:"maxAmountCents"`
	MaxConcurrencyRetries    int           `mapstructure:"maxConcurrencyRetries"`
	IdempotencyRetentionDays int           `mapstructure:"idempotencyRetentionDays"`
	PurgeInterval            time.Duration `mapstructure:"purgeInterval"` // minutes
	SnowflakeNodeID          int64         `mapstructure:"snowflakeNodeId"`
}

// AdminConfig guards the admin API surface
type AdminConfig struct {
	Token string `mapstructure:"token"`
}
