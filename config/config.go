package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"sigs.k8s.io/yaml"
)

// EnvPrefix guards which ${...} placeholders are expanded inside config
// files.
const EnvPrefix = "TSFIT_"

// Modes the CLI runs in. Validation is mode-aware: a render run does not
// need a listen port, a serve run does.
const (
	ModeFit    = "fit"
	ModeRender = "render"
	ModeServe  = "serve"
)

// Storage backends and codec names.
const (
	StorageNameLocal = "local"
	StorageNameS3    = "s3"

	RepoCompressorGzip = "gzip"
	RepoCompressorZstd = "zstd"

	RepoEncryptorAes256Gcm = "aes-256-gcm"
)

type Config struct {
	Main    MainConfig    `json:"main"`
	Log     LogConfig     `json:"log"`
	Model   ModelConfig   `json:"model"`
	Plot    PlotConfig    `json:"plot"`
	Serve   ServeConfig   `json:"serve"`
	Storage StorageConfig `json:"storage"`
	Metrics MetricsConfig `json:"metrics"`
}

type MainConfig struct {
	// Directory is where rendered figures are written and served from.
	Directory string `json:"directory" env:"TSFIT_DIRECTORY"`
}

type LogConfig struct {
	Level     string `json:"level" env:"TSFIT_LOG_LEVEL, default=info"`
	Format    string `json:"format" env:"TSFIT_LOG_FORMAT, default=text"`
	AddSource bool   `json:"add_source" env:"TSFIT_LOG_ADD_SOURCE"`
}

type ModelConfig struct {
	// Name labels the model in reports and figure titles; defaults to the
	// observation series name.
	Name string `json:"name" env:"TSFIT_MODEL_NAME"`
	// Observations is the path of the observation CSV (time,value).
	Observations string `json:"observations" env:"TSFIT_MODEL_OBSERVATIONS"`
	// Stresses are the forcing series.
	Stresses []StressConfig `json:"stresses"`
}

type StressConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type PlotConfig struct {
	// Backends to register; none are registered by default.
	Backends []string `json:"backends" env:"TSFIT_PLOT_BACKENDS"`
	Width    int      `json:"width" env:"TSFIT_PLOT_WIDTH"`
	Height   int      `json:"height" env:"TSFIT_PLOT_HEIGHT"`
	Format   string   `json:"format" env:"TSFIT_PLOT_FORMAT"`
	Title    string   `json:"title" env:"TSFIT_PLOT_TITLE"`
}

type ServeConfig struct {
	ListenPort int `json:"listen_port" env:"TSFIT_LISTEN_PORT, default=7070"`
	// Cron re-renders figures on a schedule (POSIX cron syntax, no
	// seconds). Empty disables scheduled re-rendering.
	Cron      string          `json:"cron" env:"TSFIT_SERVE_CRON"`
	Retention RetentionConfig `json:"retention"`
}

type RetentionConfig struct {
	Enable bool `json:"enable" env:"TSFIT_RETENTION_ENABLE"`
	// KeepLast bounds how many archived figure sets are retained.
	KeepLast int `json:"keep_last" env:"TSFIT_RETENTION_KEEP_LAST, default=10"`
}

type StorageConfig struct {
	// Name selects the archive backend; empty disables archiving.
	Name        string            `json:"name" env:"TSFIT_STORAGE_NAME"`
	Compression CompressionConfig `json:"compression"`
	Encryption  EncryptionConfig  `json:"encryption"`
	S3          S3Config          `json:"s3"`
}

type CompressionConfig struct {
	Algo string `json:"algo" env:"TSFIT_STORAGE_COMPRESSION_ALGO"`
}

type EncryptionConfig struct {
	Algo string `json:"algo" env:"TSFIT_STORAGE_ENCRYPTION_ALGO"`
	Pass string `json:"pass" env:"TSFIT_STORAGE_ENCRYPTION_PASS"`
}

type S3Config struct {
	URL             string `json:"url" env:"TSFIT_S3_URL"`
	AccessKeyID     string `json:"access_key_id" env:"TSFIT_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key" env:"TSFIT_S3_SECRET_ACCESS_KEY"`
	Bucket          string `json:"bucket" env:"TSFIT_S3_BUCKET"`
	Region          string `json:"region" env:"TSFIT_S3_REGION"`
	UsePathStyle    bool   `json:"use_path_style" env:"TSFIT_S3_USE_PATH_STYLE"`
	DisableSSL      bool   `json:"disable_ssl" env:"TSFIT_S3_DISABLE_SSL"`
}

type MetricsConfig struct {
	Enable bool `json:"enable" env:"TSFIT_METRICS_ENABLE"`
}

var config *Config

// Cfg returns the process config. It must have been loaded in main.
func Cfg() *Config {
	if config == nil {
		log.Fatal("config was not loaded in main")
	}
	return config
}

// MustLoad reads the config file at path, expanding ${TSFIT_*} placeholders
// from the environment, and validates it for the given mode.
func MustLoad(path, mode string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	var c Config
	expanded := ExpandEnvsWithPrefix(string(data), EnvPrefix)
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		log.Fatalf("parse config %s: %v", path, err)
	}
	applyDefaults(&c)
	if err := c.Validate(mode); err != nil {
		log.Fatal(err)
	}
	config = &c
	return config
}

// MustEnvconfig builds the config from TSFIT_* environment variables only.
func MustEnvconfig(mode string) *Config {
	var c Config
	if err := envconfig.Process(context.Background(), &c); err != nil {
		log.Fatal(err)
	}
	applyDefaults(&c)
	if err := c.Validate(mode); err != nil {
		log.Fatal(err)
	}
	config = &c
	return config
}

func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Serve.ListenPort == 0 {
		c.Serve.ListenPort = 7070
	}
	if c.Serve.Retention.KeepLast == 0 {
		c.Serve.Retention.KeepLast = 10
	}
}

// Validate checks the fields the given mode depends on.
func (c *Config) Validate(mode string) error {
	if c.Model.Observations == "" {
		return fmt.Errorf("config: model.observations is not set")
	}
	if len(c.Model.Stresses) == 0 {
		return fmt.Errorf("config: model.stresses is empty")
	}
	for i, s := range c.Model.Stresses {
		if s.Path == "" {
			return fmt.Errorf("config: model.stresses[%d].path is not set", i)
		}
	}

	switch mode {
	case ModeFit:
		// nothing else required
	case ModeRender:
		if c.Main.Directory == "" {
			return fmt.Errorf("config: main.directory is required for render")
		}
		if len(c.Plot.Backends) == 0 {
			return fmt.Errorf("config: plot.backends is empty")
		}
	case ModeServe:
		if c.Main.Directory == "" {
			return fmt.Errorf("config: main.directory is required for serve")
		}
		if len(c.Plot.Backends) == 0 {
			return fmt.Errorf("config: plot.backends is empty")
		}
		if c.Serve.ListenPort <= 0 {
			return fmt.Errorf("config: serve.listen_port is not set")
		}
	default:
		return fmt.Errorf("config: unknown mode: %s", mode)
	}

	if c.Storage.Name != "" &&
		!strings.EqualFold(c.Storage.Name, StorageNameLocal) &&
		!strings.EqualFold(c.Storage.Name, StorageNameS3) {
		return fmt.Errorf("config: unknown storage name: %s", c.Storage.Name)
	}
	return nil
}

// HasExternalStorageConfigured reports whether figure archiving is on.
func (c *Config) HasExternalStorageConfigured() bool {
	return c.Storage.Name != ""
}

// String dumps the config as indented JSON with sensitive fields masked.
func (c *Config) String() string {
	masked := *c
	if masked.Storage.Encryption.Pass != "" {
		masked.Storage.Encryption.Pass = "***"
	}
	if masked.Storage.S3.SecretAccessKey != "" {
		masked.Storage.S3.SecretAccessKey = "***"
	}
	data, err := json.MarshalIndent(&masked, "", "  ")
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvsWithPrefix expands ${NAME} placeholders whose NAME carries the
// given prefix; placeholders with other prefixes are kept verbatim so
// foreign templating survives.
func ExpandEnvsWithPrefix(s, prefix string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		name := envPlaceholder.FindStringSubmatch(match)[1]
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			return match
		}
		return os.Getenv(name)
	})
}
