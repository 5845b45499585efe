package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yml"

type AppConfig struct {
	Port         int    `yaml:"port"`
	GinMode      string `yaml:"gin_mode"`
	Version      string `yaml:"version"`
	RateLimitRPM int    `yaml:"rate_limit_rpm"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type TwoFactorConfig struct {
	CodeLength   int    `yaml:"code_length"`
	TTL          string `yaml:"ttl"`
	ResendWindow string `yaml:"resend_window"`
	MaxAttempts  int    `yaml:"max_attempts"`
}

type AccountConfig struct {
	TempPasswordLength int `yaml:"temp_password_length"`
	MinPasswordLength  int `yaml:"min_password_length"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	SendGridHost   string `yaml:"sendgrid_host"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SweepConfig struct {
	Interval           string `yaml:"interval"`
	BlacklistRetention string `yaml:"blacklist_retention"`
	ChallengeRetention string `yaml:"challenge_retention"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	TwoFactor TwoFactorConfig `yaml:"two_factor"`
	Account   AccountConfig   `yaml:"account"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Email     EmailConfig     `yaml:"email"`
	Casbin    CasbinConfig    `yaml:"casbin"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sweep     SweepConfig     `yaml:"sweep"`
}

type Config struct {
	Port                  string
	GinMode               string
	Version               string
	RateLimitRPM          int
	DSN                   string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	JWTSecret             string
	JWTIssuer             string
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	TwoFactorCodeLength   int
	TwoFactorTTL          time.Duration
	TwoFactorResendWindow time.Duration
	TwoFactorMaxAttempts  int
	TempPasswordLength    int
	MinPasswordLength     int
	TwilioSID             string
	TwilioToken           string
	TwilioFrom            string
	SendGridAPIKey        string
	SendGridHost          string
	EmailFrom             string
	EmailFromName         string
	CasbinModelPath       string
	LogLevel              string
	LogFormat             string
	SweepInterval         time.Duration
	BlacklistRetention    time.Duration
	ChallengeRetention    time.Duration
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the YAML file named by CONFIG_PATH and applies environment
// overrides for secrets and connection strings.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(env("CONFIG_PATH", defaultConfigPath))
}

// LoadFile parses the given YAML file. Environment overrides still apply.
func LoadFile(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	applyDefaults(configFile)

	accTTL, err := time.ParseDuration(configFile.JWT.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access TTL: %w", err)
	}
	refTTL, err := time.ParseDuration(configFile.JWT.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT refresh TTL: %w", err)
	}
	codeTTL, err := time.ParseDuration(configFile.TwoFactor.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid two-factor TTL: %w", err)
	}
	resWnd, err := time.ParseDuration(configFile.TwoFactor.ResendWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid two-factor resend window: %w", err)
	}
	sweepEvery, err := time.ParseDuration(configFile.Sweep.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}
	blRetention, err := time.ParseDuration(configFile.Sweep.BlacklistRetention)
	if err != nil {
		return nil, fmt.Errorf("invalid blacklist retention: %w", err)
	}
	chRetention, err := time.ParseDuration(configFile.Sweep.ChallengeRetention)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge retention: %w", err)
	}

	cfg := &Config{
		Port:                  env("PORT", strconv.Itoa(configFile.App.Port)),
		GinMode:               configFile.App.GinMode,
		Version:               configFile.App.Version,
		RateLimitRPM:          configFile.App.RateLimitRPM,
		DSN:                   env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:             env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:         env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:               configFile.Redis.DB,
		JWTSecret:             env("JWT_SECRET", configFile.JWT.Secret),
		JWTIssuer:             configFile.JWT.Issuer,
		AccessTTL:             accTTL,
		RefreshTTL:            refTTL,
		TwoFactorCodeLength:   configFile.TwoFactor.CodeLength,
		TwoFactorTTL:          codeTTL,
		TwoFactorResendWindow: resWnd,
		TwoFactorMaxAttempts:  configFile.TwoFactor.MaxAttempts,
		TempPasswordLength:    configFile.Account.TempPasswordLength,
		MinPasswordLength:     configFile.Account.MinPasswordLength,
		TwilioSID:             env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken:           env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:            env("TWILIO_FROM_NUMBER", configFile.Twilio.FromNumber),
		SendGridAPIKey:        env("SENDGRID_API_KEY", configFile.Email.SendGridAPIKey),
		SendGridHost:          configFile.Email.SendGridHost,
		EmailFrom:             env("EMAIL_FROM", configFile.Email.FromAddress),
		EmailFromName:         configFile.Email.FromName,
		CasbinModelPath:       configFile.Casbin.ModelPath,
		LogLevel:              env("LOG_LEVEL", configFile.Logging.Level),
		LogFormat:             configFile.Logging.Format,
		SweepInterval:         sweepEvery,
		BlacklistRetention:    blRetention,
		ChallengeRetention:    chRetention,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the core cannot run safely with
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("jwt secret must be at least 32 bytes"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt TTLs must be positive"))
	}
	if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, errors.New("access TTL must be shorter than refresh TTL"))
	}
	if c.TwoFactorCodeLength != 6 {
		errs = append(errs, errors.New("two-factor code length must be 6"))
	}
	if c.TwoFactorMaxAttempts <= 0 {
		errs = append(errs, errors.New("two-factor max attempts must be positive"))
	}
	if c.BlacklistRetention < c.AccessTTL {
		errs = append(errs, errors.New("blacklist retention must cover the access TTL"))
	}
	if c.ChallengeRetention < c.TwoFactorTTL || c.ChallengeRetention < c.TwoFactorResendWindow {
		errs = append(errs, errors.New("challenge retention must cover the two-factor TTL and resend window"))
	}
	if c.SendGridAPIKey != "" && c.EmailFrom == "" {
		errs = append(errs, errors.New("email from_address is required with a SendGrid key"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep interval must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func applyDefaults(f *ConfigFile) {
	if f.App.Port == 0 {
		f.App.Port = 8080
	}
	if f.App.GinMode == "" {
		f.App.GinMode = "release"
	}
	if f.App.Version == "" {
		f.App.Version = "dev"
	}
	if f.JWT.Issuer == "" {
		f.JWT.Issuer = "safetyauth"
	}
	if f.TwoFactor.CodeLength == 0 {
		f.TwoFactor.CodeLength = 6
	}
	if f.TwoFactor.TTL == "" {
		f.TwoFactor.TTL = "5m"
	}
	if f.TwoFactor.ResendWindow == "" {
		f.TwoFactor.ResendWindow = "3m"
	}
	if f.TwoFactor.MaxAttempts == 0 {
		f.TwoFactor.MaxAttempts = 5
	}
	if f.Account.TempPasswordLength == 0 {
		f.Account.TempPasswordLength = 8
	}
	if f.Account.MinPasswordLength == 0 {
		f.Account.MinPasswordLength = 8
	}
	if f.Email.FromName == "" {
		f.Email.FromName = "Safety Platform"
	}
	if f.Logging.Level == "" {
		f.Logging.Level = "info"
	}
	if f.Logging.Format == "" {
		f.Logging.Format = "json"
	}
	if f.Sweep.Interval == "" {
		f.Sweep.Interval = "1h"
	}
	if f.Sweep.BlacklistRetention == "" {
		f.Sweep.BlacklistRetention = "24h"
	}
	if f.Sweep.ChallengeRetention == "" {
		f.Sweep.ChallengeRetention = "24h"
	}
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
