package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath は設定ファイルの既定パスです。
	DefaultPath = "assets/local.yaml"

	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"

	defaultImageNamespace = "employee_images"
	defaultMaxImageBytes  = 5 << 20
	defaultMediaBaseURL   = "/media/"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultShutdownWait   = 10 * time.Second
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig は HTTP サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	ReadTimeout        time.Duration `yaml:"-"`
	WriteTimeout       time.Duration `yaml:"-"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ReadTimeoutRaw     string        `yaml:"read_timeout"`
	WriteTimeoutRaw    string        `yaml:"write_timeout"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig は社員画像を保存するオブジェクトストアの設定です。
type StorageConfig struct {
	Backend       string             `yaml:"backend"`
	Namespace     string             `yaml:"namespace"`
	MaxImageBytes int64              `yaml:"max_image_bytes"`
	Local         LocalStorageConfig `yaml:"local"`
	S3            S3StorageConfig    `yaml:"s3"`
}

// LocalStorageConfig はローカルディスクに保存する場合の設定です。
type LocalStorageConfig struct {
	Root    string `yaml:"root"`
	BaseURL string `yaml:"base_url"`
}

// S3StorageConfig は S3 互換ストレージの設定です。
type S3StorageConfig struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	Prefix        string `yaml:"prefix"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// ResolvePath はフラグ値・環境変数 CONFIG_PATH・既定値の順に設定ファイルのパスを決定します。
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return DefaultPath
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Log.validateAndNormalize(); err != nil {
		return err
	}
	return c.Storage.validateAndNormalize()
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	var err error
	if s.ReadTimeout, err = parseDurationAllowEmpty(s.ReadTimeoutRaw); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if s.WriteTimeout, err = parseDurationAllowEmpty(s.WriteTimeoutRaw); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}
	if s.ShutdownTimeout, err = parseDurationAllowEmpty(s.ShutdownTimeoutRaw); err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownWait
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	switch l.Format {
	case "":
		l.Format = defaultLogFormat
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", l.Format)
	}
	return nil
}

func (s *StorageConfig) validateAndNormalize() error {
	if s.Backend == "" {
		s.Backend = StorageBackendLocal
	}
	s.Namespace = strings.Trim(s.Namespace, "/")
	if s.Namespace == "" {
		s.Namespace = defaultImageNamespace
	}
	if s.MaxImageBytes < 0 {
		return fmt.Errorf("config: storage.max_image_bytes must not be negative")
	}
	if s.MaxImageBytes == 0 {
		s.MaxImageBytes = defaultMaxImageBytes
	}

	switch s.Backend {
	case StorageBackendLocal:
		if s.Local.Root == "" {
			return fmt.Errorf("config: storage.local.root must be set")
		}
		if s.Local.BaseURL == "" {
			s.Local.BaseURL = defaultMediaBaseURL
		}
		if !strings.HasSuffix(s.Local.BaseURL, "/") {
			s.Local.BaseURL += "/"
		}
	case StorageBackendS3:
		if s.S3.Bucket == "" {
			return fmt.Errorf("config: storage.s3.bucket must be set")
		}
		if s.S3.Region == "" {
			return fmt.Errorf("config: storage.s3.region must be set")
		}
		s.S3.Prefix = strings.Trim(s.S3.Prefix, "/")
	default:
		return fmt.Errorf("config: storage.backend must be %s or %s, got %q", StorageBackendLocal, StorageBackendS3, s.Backend)
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

// DSN は pgx 用の接続文字列を返します。認証情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
