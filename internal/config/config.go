package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Built-in kiosk endpoint and key, used when the environment does not set them.
const (
	DefaultKioskAPIURL = "http://localhost:8080"
	DefaultAnonKey     = "crustalyst-anon-key"
)

// Config хранит все параметры приложения
type Config struct {
	App          AppConfig
	Log          LogConfig
	Database     DatabaseConfig
	RabbitMQ     RabbitMQConfig
	Redis        RedisConfig
	Auth         AuthConfig
	HTTP         HTTPConfig
	Tables       TablesConfig
	Orders       OrdersConfig
	Kiosk        KioskConfig
	Housekeeping HousekeepingConfig
	Notifier     NotifierConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
	Exchange string
	// ReconnectDelay is the first pause before a lost consumer is restarted.
	ReconnectDelay time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	MenuTTL  time.Duration
}

func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%d", r.Host, r.Port) }

type AuthConfig struct {
	AnonKey           string
	StaffPassword     string
	StaffPasswordHash string
	JWTSecret         string
	JWTTTL            time.Duration
	Issuer            string
}

type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
	CORSAllowOrigins []string
}

type TablesConfig struct {
	CleaningDelay time.Duration
}

type OrdersConfig struct {
	HistoryLimit int
}

type HousekeepingConfig struct {
	SweepInterval time.Duration
}

type NotifierConfig struct {
	Queue       string
	Prefetch    int
	RemindAfter time.Duration
	RemindEvery time.Duration
}

type KioskConfig struct {
	APIURL               string
	APIKey               string
	PollInterval         time.Duration
	FallbackPollInterval time.Duration
	RequestTimeout       time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "crustalyst")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "crustalyst")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "crustalyst")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.vhost", "/")
	v.SetDefault("rabbitmq.exchange", "crustalyst.changes")
	v.SetDefault("rabbitmq.reconnect_delay", 2*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.menu_ttl", time.Minute)

	v.SetDefault("auth.anon_key", DefaultAnonKey)
	v.SetDefault("auth.staff_password", "admin123")
	v.SetDefault("auth.staff_password_hash", "")
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.jwt_ttl", 12*time.Hour)
	v.SetDefault("auth.issuer", "crustalyst")

	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("http.rate_limit_rps", 20.0)
	v.SetDefault("http.rate_limit_burst", 40)
	v.SetDefault("http.cors_allow_origins", []string{"*"})

	v.SetDefault("tables.cleaning_delay", 5*time.Minute)
	v.SetDefault("orders.history_limit", 50)
	v.SetDefault("housekeeping.sweep_interval", 15*time.Second)

	v.SetDefault("notifier.queue", "crustalyst.staff_pager")
	v.SetDefault("notifier.prefetch", 8)
	v.SetDefault("notifier.remind_after", 2*time.Minute)
	v.SetDefault("notifier.remind_every", time.Minute)

	v.SetDefault("kiosk.api_url", DefaultKioskAPIURL)
	v.SetDefault("kiosk.api_key", DefaultAnonKey)
	v.SetDefault("kiosk.poll_interval", 10*time.Second)
	v.SetDefault("kiosk.fallback_poll_interval", 5*time.Second)
	v.SetDefault("kiosk.request_timeout", 10*time.Second)
}

// New returns a viper instance wired to config.yaml (optional) and CRUSTALYST_* env vars.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./deploy")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("CRUSTALYST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// Load reads configuration. Priority: CRUSTALYST_* env vars, config file, defaults.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v), nil
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetInt("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("database.host"),
			Port:         v.GetInt("database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			Database:     v.GetString("database.database"),
			SSLMode:      v.GetString("database.sslmode"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     v.GetString("rabbitmq.host"),
			Port:     v.GetInt("rabbitmq.port"),
			User:     v.GetString("rabbitmq.user"),
			Password: v.GetString("rabbitmq.password"),
			VHost:    v.GetString("rabbitmq.vhost"),
			Exchange: v.GetString("rabbitmq.exchange"),

			ReconnectDelay: v.GetDuration("rabbitmq.reconnect_delay"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			MenuTTL:  v.GetDuration("redis.menu_ttl"),
		},
		Auth: AuthConfig{
			AnonKey:           v.GetString("auth.anon_key"),
			StaffPassword:     v.GetString("auth.staff_password"),
			StaffPasswordHash: v.GetString("auth.staff_password_hash"),
			JWTSecret:         v.GetString("auth.jwt_secret"),
			JWTTTL:            v.GetDuration("auth.jwt_ttl"),
			Issuer:            v.GetString("auth.issuer"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			RateLimitEnabled: v.GetBool("http.rate_limit_enabled"),
			RateLimitRPS:     v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:   v.GetInt("http.rate_limit_burst"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Tables:       TablesConfig{CleaningDelay: v.GetDuration("tables.cleaning_delay")},
		Orders:       OrdersConfig{HistoryLimit: v.GetInt("orders.history_limit")},
		Housekeeping: HousekeepingConfig{SweepInterval: v.GetDuration("housekeeping.sweep_interval")},
		Notifier: NotifierConfig{
			Queue:       v.GetString("notifier.queue"),
			Prefetch:    v.GetInt("notifier.prefetch"),
			RemindAfter: v.GetDuration("notifier.remind_after"),
			RemindEvery: v.GetDuration("notifier.remind_every"),
		},
		Kiosk: KioskConfig{
			APIURL:               v.GetString("kiosk.api_url"),
			APIKey:               v.GetString("kiosk.api_key"),
			PollInterval:         v.GetDuration("kiosk.poll_interval"),
			FallbackPollInterval: v.GetDuration("kiosk.fallback_poll_interval"),
			RequestTimeout:       v.GetDuration("kiosk.request_timeout"),
		},
	}
}

// Validate checks what the server-side commands need.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port out of range: %d", c.App.Port))
	}
	if c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "" {
		errs = append(errs, errors.New("database config incomplete"))
	}
	if c.RabbitMQ.Host == "" || c.RabbitMQ.User == "" {
		errs = append(errs, errors.New("rabbitmq config incomplete"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.StaffPassword == "" && c.Auth.StaffPasswordHash == "" {
		errs = append(errs, errors.New("auth.staff_password or auth.staff_password_hash is required"))
	}
	if c.Auth.JWTSecret == "change-me" && c.App.Env == "production" {
		errs = append(errs, errors.New("auth.jwt_secret must be changed in production"))
	}
	if c.Tables.CleaningDelay <= 0 {
		errs = append(errs, errors.New("tables.cleaning_delay must be positive"))
	}
	if c.Housekeeping.SweepInterval <= 0 {
		errs = append(errs, errors.New("housekeeping.sweep_interval must be positive"))
	}
	return errors.Join(errs...)
}
