package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "POTRANSLATE"

const (
	StoreMongo    = "mongodb"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	ProviderGoogle = "google"
	ProviderEcho   = "echo"

	RepositoryLocal = "local"
	RepositoryS3    = "s3"
)

type Logger struct {
	Level string `yaml:"level"`
	// Format is "development" (console) or "production" (json).
	Format string `yaml:"format"`
}

type Global struct {
	Logger Logger `yaml:"logger"`
}

type Server struct {
	Listen         string `yaml:"listen"`
	CORSOrigins    string `yaml:"cors_origins"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Store struct {
	Type        string `yaml:"type"`
	MongoURL    string `yaml:"mongo_url"`
	DBName      string `yaml:"db_name"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type Translator struct {
	Provider    string        `yaml:"provider"`
	Workers     int           `yaml:"workers"`
	Pacing      time.Duration `yaml:"pacing"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

type LocalConfig struct {
	Path string `yaml:"path"`
}

type S3Config struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Prefix         string `yaml:"prefix"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// Repository selects where rendered artifacts go. An empty type disables
// artifact storage.
type Repository struct {
	Type        string      `yaml:"type"`
	LocalConfig LocalConfig `yaml:"local"`
	S3Config    S3Config    `yaml:"s3"`
}

type Events struct {
	// URL is e.g. kafka://localhost:9092/potranslate.jobs; empty disables events.
	URL string `yaml:"url"`
}

type Archiver struct {
	Limit               int        `yaml:"limit"`
	BatchSizeNumRecords int        `yaml:"batch_size_num_records"`
	Repository          Repository `yaml:"repository"`
}

type Config struct {
	Global     Global     `yaml:"global"`
	Server     Server     `yaml:"server"`
	Store      Store      `yaml:"store"`
	Translator Translator `yaml:"translator"`
	Repository Repository `yaml:"repository"`
	Events     Events     `yaml:"events"`
	Archiver   Archiver   `yaml:"archiver"`
}

func Default() *Config {
	return &Config{
		Global: Global{
			Logger: Logger{Level: "info", Format: "development"},
		},
		Server: Server{
			Listen:         ":8080",
			CORSOrigins:    "*",
			MaxUploadBytes: 10 << 20,
		},
		Store: Store{
			Type:     StoreMongo,
			MongoURL: "mongodb://localhost:27017",
			DBName:   "potranslate",
		},
		Translator: Translator{
			Provider: ProviderGoogle,
			Workers:  4,
			Pacing:   100 * time.Millisecond,
		},
		Archiver: Archiver{
			Limit:               1000,
			BatchSizeNumRecords: 10000,
		},
	}
}

// NewFromFile reads a YAML config on top of the defaults.
func NewFromFile(fpath string) (*Config, error) {
	c := Default()

	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fpath, err)
	}
	return c, nil
}

// Load reads the optional config file and applies the overrides held by v
// (bound flags and environment), then validates the result.
func Load(fpath string, v *viper.Viper) (*Config, error) {
	c := Default()
	if fpath != "" {
		var err error
		if c, err = NewFromFile(fpath); err != nil {
			return nil, err
		}
	}
	if v != nil {
		c.override(v)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// envAliases are the variable names the service has always been deployed with.
var envAliases = map[string][]string{
	"store.mongo_url":     {"MONGO_URL"},
	"store.db_name":       {"DB_NAME"},
	"store.postgres_dsn":  {"DATABASE_URL"},
	"server.cors_origins": {"CORS_ORIGINS"},
}

// NewViper returns a viper reading POTRANSLATE_* variables, e.g.
// POTRANSLATE_TRANSLATOR_WORKERS, plus the legacy aliases.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	return v
}

func (c *Config) override(v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	str("logger.level", &c.Global.Logger.Level)
	str("logger.format", &c.Global.Logger.Format)

	str("server.listen", &c.Server.Listen)
	str("server.cors_origins", &c.Server.CORSOrigins)
	if v.IsSet("server.max_upload_bytes") {
		c.Server.MaxUploadBytes = v.GetInt64("server.max_upload_bytes")
	}

	str("store.type", &c.Store.Type)
	str("store.mongo_url", &c.Store.MongoURL)
	str("store.db_name", &c.Store.DBName)
	str("store.postgres_dsn", &c.Store.PostgresDSN)

	str("translator.provider", &c.Translator.Provider)
	if v.IsSet("translator.workers") {
		c.Translator.Workers = v.GetInt("translator.workers")
	}
	if v.IsSet("translator.pacing") {
		c.Translator.Pacing = v.GetDuration("translator.pacing")
	}
	if v.IsSet("translator.call_timeout") {
		c.Translator.CallTimeout = v.GetDuration("translator.call_timeout")
	}

	str("repository.type", &c.Repository.Type)
	str("repository.local.path", &c.Repository.LocalConfig.Path)
	str("repository.s3.bucket", &c.Repository.S3Config.Bucket)
	str("repository.s3.region", &c.Repository.S3Config.Region)
	str("repository.s3.prefix", &c.Repository.S3Config.Prefix)
	str("repository.s3.endpoint", &c.Repository.S3Config.Endpoint)

	str("events.url", &c.Events.URL)
}

func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreMongo:
		if c.Store.MongoURL == "" || c.Store.DBName == "" {
			return fmt.Errorf("store: mongodb requires mongo_url and db_name")
		}
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store: postgres requires postgres_dsn")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store: unknown type %q", c.Store.Type)
	}

	switch c.Translator.Provider {
	case ProviderGoogle, ProviderEcho:
	default:
		return fmt.Errorf("translator: unknown provider %q", c.Translator.Provider)
	}
	if c.Translator.Workers < 1 {
		return fmt.Errorf("translator: workers must be at least 1, got %d", c.Translator.Workers)
	}
	if c.Translator.Pacing < 0 || c.Translator.CallTimeout < 0 {
		return fmt.Errorf("translator: pacing and call_timeout must not be negative")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server: max_upload_bytes must be positive")
	}

	if err := c.Repository.Validate(); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	if err := c.Archiver.Repository.Validate(); err != nil {
		return fmt.Errorf("archiver repository: %w", err)
	}
	return nil
}

func (r Repository) Validate() error {
	switch r.Type {
	case "":
	case RepositoryLocal:
		if r.LocalConfig.Path == "" {
			return fmt.Errorf("local requires path")
		}
	case RepositoryS3:
		if r.S3Config.Bucket == "" {
			return fmt.Errorf("s3 requires bucket")
		}
	default:
		return fmt.Errorf("unknown type %q", r.Type)
	}
	return nil
}
