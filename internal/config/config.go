package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage drivers understood by Load.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars and an optional TOML file.
type Config struct {
	Port          string
	StorageDriver string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	OTPTTL            time.Duration
	ResetRequestLimit int
	ResetVerifyLimit  int
	ResetWindow       time.Duration

	CollabBaseURL string
	CollabTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// source resolves a key from the environment first, then from the config file.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(s.file[strings.ToLower(key)])
}

// Load reads configuration and performs minimal validation. When PAWFAM_CONFIG
// names a TOML file its keys (lower-cased env names) fill anything the
// environment leaves unset.
func Load() (Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("PAWFAM_CONFIG")); path != "" {
		file, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = file
	}

	cfg := Config{
		Port:          fallback(src.get("PORT"), "8080"),
		StorageDriver: strings.ToLower(fallback(src.get("STORAGE_DRIVER"), DriverPostgres)),
		DatabaseURL:   src.get("DATABASE_URL"),
		MongoURI:      src.get("MONGO_URI"),
		MongoDatabase: fallback(src.get("MONGO_DATABASE"), "pawfam"),
		RedisURL:      src.get("REDIS_URL"),
		JWTSecret:     src.get("JWT_SECRET"),
		JWTIssuer:     fallback(src.get("JWT_ISSUER"), "pawfam-backend"),
		JWTTTL:        minutes(src.get("JWT_TTL_MINUTES"), 7*24*60),
		CORSOrigins:   parseCSV(fallback(src.get("CORS_ALLOWED_ORIGINS"), "*")),
		SMTPHost:      src.get("SMTP_HOST"),
		SMTPPort:      positiveInt(src.get("SMTP_PORT"), 587),
		SMTPUser:      src.get("EMAIL_USER"),
		SMTPPassword:  src.get("EMAIL_PASSWORD"),
		OTPTTL:        minutes(src.get("OTP_TTL_MINUTES"), 10),
		ResetWindow:   minutes(src.get("RESET_WINDOW_MINUTES"), 15),
		CollabBaseURL: strings.TrimRight(src.get("COLLAB_BASE_URL"), "/"),
		CollabTimeout: time.Duration(positiveInt(src.get("COLLAB_TIMEOUT_SECONDS"), 10)) * time.Second,
		LogLevel:      fallback(src.get("LOG_LEVEL"), "info"),
		LogFormat:     fallback(src.get("LOG_FORMAT"), "json"),
	}
	cfg.MailFrom = fallback(src.get("MAIL_FROM"), cfg.SMTPUser)
	cfg.ResetRequestLimit = nonNegativeInt(src.get("RESET_REQUEST_LIMIT"), 5)
	cfg.ResetVerifyLimit = nonNegativeInt(src.get("RESET_VERIFY_LIMIT"), 5)

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			return Config{}, errors.New("MONGO_URI is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// SMTPEnabled reports whether enough settings are present to send real mail.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != ""
}

func readFile(path string) (map[string]string, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[strings.ToLower(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToLower(k)] = fmt.Sprint(val)
		}
	}
	return out, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func minutes(value string, def int) time.Duration {
	return time.Duration(positiveInt(value, def)) * time.Minute
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n
	}
	return def
}

func nonNegativeInt(value string, def int) int {
	if n, err := strconv.Atoi(value); err == nil && n >= 0 {
		return n
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
