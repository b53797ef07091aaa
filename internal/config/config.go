package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendLocal = "local"
	BackendS3    = "s3"
)

type Config struct {
	Env        string           `mapstructure:"env"`
	DataRoot   string           `mapstructure:"data_root"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Security   SecurityConfig   `mapstructure:"security"`
	Submission SubmissionConfig `mapstructure:"submission"`
	Tracking   TrackingConfig   `mapstructure:"tracking"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type StorageConfig struct {
	Backend   string   `mapstructure:"backend"`
	UploadDir string   `mapstructure:"upload_dir"`
	S3        S3Config `mapstructure:"s3"`
}

// S3Config points at any S3-compatible bucket (AWS, MinIO, R2).
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// AdminConfig holds the single administrator credential.
// PasswordHash is a bcrypt hash. Password is the legacy plaintext setting
// and is only consulted when no hash is configured.
type AdminConfig struct {
	Password     string        `mapstructure:"password"`
	PasswordHash string        `mapstructure:"password_hash"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

type SecurityConfig struct {
	SessionSecret  string   `mapstructure:"session_secret"`
	CSRFKey        string   `mapstructure:"csrf_key"`
	ForceHTTPS     bool     `mapstructure:"force_https"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LoginRateLimit int      `mapstructure:"login_rate_limit"`
}

type SubmissionConfig struct {
	RequireContact bool `mapstructure:"require_contact"`
}

type TrackingConfig struct {
	RequireCode bool `mapstructure:"require_code"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads .env, the optional YAML file at path and the environment, in
// increasing order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("data_root", ".")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.upload_dir", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "auto")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "uploads/")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")

	v.SetDefault("upload.max_bytes", 64<<20)

	v.SetDefault("admin.password", "admin")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.session_ttl", "12h")

	v.SetDefault("security.session_secret", "")
	v.SetDefault("security.csrf_key", "")
	v.SetDefault("security.force_https", false)
	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.login_rate_limit", 10)

	v.SetDefault("submission.require_contact", true)
	v.SetDefault("tracking.require_code", false)

	v.SetDefault("log.level", "")
}

// bindLegacyEnv keeps the variable names older deployments already use.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("security.session_secret", "SECURITY_SESSION_SECRET", "SESSION_SECRET", "SECRET_KEY")
	_ = v.BindEnv("security.force_https", "SECURITY_FORCE_HTTPS", "FORCE_HTTPS")
	_ = v.BindEnv("env", "ENV", "APP_ENV")
}

func (c *Config) applyDerived() {
	if c.DataRoot == "" {
		c.DataRoot = "."
	}
	if c.Database.Driver == DriverSQLite && c.Database.DSN == "" {
		c.Database.DSN = filepath.Join(c.DataRoot, "instance", "complaints.db")
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = filepath.Join(c.DataRoot, "uploads")
	}
	if c.Security.SessionSecret == "" && c.IsDev() {
		c.Security.SessionSecret = "dev-secret"
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case BackendLocal:
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	if c.Security.SessionSecret == "" {
		return fmt.Errorf("security.session_secret (SECRET_KEY) must be set outside dev")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}
