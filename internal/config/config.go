package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the print queue service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseDriver   string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	NATSSubject      string
	RedisChannel     string
	JWTSecret        string
	JWTTTL           time.Duration
	ConfirmSecret    string
	ConfirmMaxAge    time.Duration
	StoragePath      string
	UploadMaxBytes   int64
	PublicBaseURL    string
	Mail             MailConfig
	Workstations     map[string]string
	StatsCacheTTL    time.Duration
	SubmitRateLimit  int
	SeedStaffOnStart bool
}

// MailConfig configures outbound SMTP. An empty host selects the log mailer.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FABLAB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "FabLab Print API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("nats.subject", "fablab.jobs.events")
	v.SetDefault("redis.channel", "fablab:jobs:events")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("confirm.max_age", "72h")
	v.SetDefault("storage.path", "./storage")
	v.SetDefault("upload.max_mb", 50)
	v.SetDefault("public.base_url", "http://localhost:8080")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "fablab@localhost")
	v.SetDefault("stats.cache_ttl", "30s")
	v.SetDefault("submit.rate_limit", 10)
	v.SetDefault("staff.seed", false)

	jwtTTL, err := parseDuration(v, "jwt.ttl")
	if err != nil {
		return Config{}, err
	}
	confirmMaxAge, err := parseDuration(v, "confirm.max_age")
	if err != nil {
		return Config{}, err
	}
	statsTTL, err := parseDuration(v, "stats.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	workstations, err := ParseWorkstations(v.GetString("workstations"))
	if err != nil {
		return Config{}, err
	}

	maxMB := v.GetInt64("upload.max_mb")
	if maxMB <= 0 {
		maxMB = 50
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseDriver:  strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		NATSSubject:     v.GetString("nats.subject"),
		RedisChannel:    v.GetString("redis.channel"),
		JWTSecret:       v.GetString("jwt.secret"),
		JWTTTL:          jwtTTL,
		ConfirmSecret:   v.GetString("confirm.secret"),
		ConfirmMaxAge:   confirmMaxAge,
		StoragePath:     v.GetString("storage.path"),
		UploadMaxBytes:  maxMB * 1024 * 1024,
		PublicBaseURL:   strings.TrimRight(v.GetString("public.base_url"), "/"),
		Workstations:    workstations,
		StatsCacheTTL:   statsTTL,
		SubmitRateLimit: v.GetInt("submit.rate_limit"),
		Mail: MailConfig{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
		},
		SeedStaffOnStart: v.GetBool("staff.seed"),
	}

	if cfg.JWTSecret == "" || cfg.ConfirmSecret == "" {
		return Config{}, fmt.Errorf("jwt and confirmation secrets must be provided")
	}

	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// ParseWorkstations decodes a comma separated list of id:password pairs.
func ParseWorkstations(raw string) (map[string]string, error) {
	result := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, password, ok := strings.Cut(pair, ":")
		id = strings.TrimSpace(id)
		if !ok || id == "" || password == "" {
			return nil, fmt.Errorf("invalid workstation entry %q", pair)
		}
		result[id] = password
	}
	return result, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
