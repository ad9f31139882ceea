package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. ATTENDANCE_LEDGER_DSN.
const EnvPrefix = "ATTENDANCE"

// Gallery backends
const (
	GalleryBackendFS = "fs"
	GalleryBackendS3 = "s3"
)

// Gallery slot naming modes
const (
	NamingAppend    = "append"
	NamingOverwrite = "overwrite"
)

// Ledger drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Gallery    GalleryConfig    `mapstructure:"gallery"`
	Comparator ComparatorConfig `mapstructure:"comparator"`
	Matcher    MatcherConfig    `mapstructure:"matcher"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"` // localhost is always allowed
	MaxUploadSize  int64         `mapstructure:"max_upload_size"` // bytes
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Addr returns host:port for http.Server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type GalleryConfig struct {
	Backend      string   `mapstructure:"backend"` // fs or s3
	Dir          string   `mapstructure:"dir"`     // filesystem root, one directory per identity
	Naming       string   `mapstructure:"naming"`  // append or overwrite
	MaxImageSize int      `mapstructure:"max_image_size"`
	S3           S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"` // MinIO or other S3-compatible endpoint; empty for AWS
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type ComparatorConfig struct {
	URL          string `mapstructure:"url"`
	Model        string `mapstructure:"model"`
	Detector     string `mapstructure:"detector"`
	Metric       string `mapstructure:"metric"`
	AntiSpoofing bool   `mapstructure:"anti_spoofing"`
}

type MatcherConfig struct {
	Threshold   float64       `mapstructure:"threshold"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	TempDir     string        `mapstructure:"temp_dir"` // where probes are staged; empty means os.TempDir()
}

type LedgerConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.max_upload_size", constants.MaxUploadSize)
	v.SetDefault("server.read_timeout", constants.DefaultReadTimeout)
	v.SetDefault("server.write_timeout", constants.DefaultWriteTimeout)
	v.SetDefault("server.request_timeout", constants.DefaultRequestTimeout)

	v.SetDefault("gallery.backend", GalleryBackendFS)
	v.SetDefault("gallery.dir", "imagenes")
	v.SetDefault("gallery.naming", NamingAppend)
	v.SetDefault("gallery.max_image_size", constants.MaxImageSize)
	v.SetDefault("gallery.s3.bucket", "")
	v.SetDefault("gallery.s3.region", "us-east-1")
	v.SetDefault("gallery.s3.endpoint", "")
	v.SetDefault("gallery.s3.access_key", "")
	v.SetDefault("gallery.s3.secret_key", "")
	v.SetDefault("gallery.s3.prefix", "galleries")

	v.SetDefault("comparator.url", "http://localhost:5005")
	v.SetDefault("comparator.model", constants.DefaultComparatorModel)
	v.SetDefault("comparator.detector", constants.DefaultComparatorDetector)
	v.SetDefault("comparator.metric", constants.DefaultComparatorMetric)
	v.SetDefault("comparator.anti_spoofing", true)

	v.SetDefault("matcher.threshold", constants.DefaultAcceptanceThreshold)
	v.SetDefault("matcher.call_timeout", constants.DefaultComparatorTimeout)
	v.SetDefault("matcher.temp_dir", "")

	v.SetDefault("ledger.driver", DriverPostgres)
	v.SetDefault("ledger.dsn", "")
	v.SetDefault("ledger.max_open_conns", constants.DefaultMaxOpenConns)
	v.SetDefault("ledger.max_idle_conns", constants.DefaultMaxIdleConns)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from defaults, an optional YAML file and
// ATTENDANCE_* environment variables, in increasing order of precedence.
// With an empty configPath, face-attendance.yaml is looked up in the working
// directory and /etc/face-attendance; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("face-attendance")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/face-attendance/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerated values and numeric bounds.
func (c *Config) Validate() error {
	switch c.Gallery.Backend {
	case GalleryBackendFS:
		if c.Gallery.Dir == "" {
			return errors.New("gallery.dir is required for the fs backend")
		}
	case GalleryBackendS3:
		if c.Gallery.S3.Bucket == "" {
			return errors.New("gallery.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown gallery backend %q", c.Gallery.Backend)
	}

	if c.Gallery.Naming != NamingAppend && c.Gallery.Naming != NamingOverwrite {
		return fmt.Errorf("unknown gallery naming %q", c.Gallery.Naming)
	}

	switch c.Ledger.Driver {
	case DriverPostgres, DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}

	if c.Matcher.Threshold <= 0 {
		return fmt.Errorf("matcher.threshold must be positive, got %v", c.Matcher.Threshold)
	}
	if c.Matcher.CallTimeout <= 0 {
		return fmt.Errorf("matcher.call_timeout must be positive, got %v", c.Matcher.CallTimeout)
	}
	return nil
}
