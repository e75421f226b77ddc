// Package config loads the application configuration from a YAML file and
// AUTOML_* environment variables.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/automl/pkg/errors"
	"github.com/YuminosukeSato/automl/pkg/log"
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Training TrainingConfig `yaml:"training"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// StorageConfig holds file locations. Relative paths are resolved against DataDir.
type StorageConfig struct {
	DataDir         string `yaml:"data_dir"`
	DatasetFile     string `yaml:"dataset_file"`
	CredentialsFile string `yaml:"credentials_file"`
	ModelDir        string `yaml:"model_dir"`
}

// TrainingConfig holds model-search settings.
type TrainingConfig struct {
	RandomState          int64   `yaml:"random_state"`
	MaxClasses           int     `yaml:"max_classes"`
	MaxIter              int     `yaml:"max_iter"`
	DefaultTrainFraction float64 `yaml:"default_train_fraction"`
	Parallel             bool    `yaml:"parallel"`
}

// AuthConfig holds credential settings.
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Backend string `yaml:"backend"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8501,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  200 << 20,
		},
		Storage: StorageConfig{
			DataDir:         ".",
			DatasetFile:     filepath.Join("datasets", "dataset.csv"),
			CredentialsFile: "credentials.gob",
			ModelDir:        ".",
		},
		Training: TrainingConfig{
			RandomState:          42,
			MaxClasses:           20,
			MaxIter:              200,
			DefaultTrainFraction: 0.7,
			Parallel:             true,
		},
		Auth: AuthConfig{BcryptCost: bcrypt.DefaultCost},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  log.FormatJSON,
			Backend: log.BackendZerolog,
		},
	}
}

// Load reads path (optional), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "automl: failed to read config file %s", path)
		}
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return nil, errors.Wrapf(err, "automl: failed to parse config file %s", path)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode merges YAML from r over the current values. Unknown keys are rejected.
func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// ApplyEnv overrides values from AUTOML_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"AUTOML_HOST":             &c.Server.Host,
		"AUTOML_DATA_DIR":         &c.Storage.DataDir,
		"AUTOML_DATASET_FILE":     &c.Storage.DatasetFile,
		"AUTOML_CREDENTIALS_FILE": &c.Storage.CredentialsFile,
		"AUTOML_MODEL_DIR":        &c.Storage.ModelDir,
		"AUTOML_LOG_LEVEL":        &c.Logging.Level,
		"AUTOML_LOG_FORMAT":       &c.Logging.Format,
		"AUTOML_LOG_BACKEND":      &c.Logging.Backend,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"AUTOML_PORT":        &c.Server.Port,
		"AUTOML_MAX_CLASSES": &c.Training.MaxClasses,
		"AUTOML_BCRYPT_COST": &c.Auth.BcryptCost,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(key, "must be an integer", v)
		}
		*dst = n
	}

	if v, ok := lookup("AUTOML_RANDOM_STATE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.NewValidationError("AUTOML_RANDOM_STATE", "must be an integer", v)
		}
		c.Training.RandomState = n
	}
	if v, ok := lookup("AUTOML_PARALLEL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewValidationError("AUTOML_PARALLEL", "must be a boolean", v)
		}
		c.Training.Parallel = b
	}
	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.NewValidationError("server.port", "must be between 1 and 65535", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.NewValidationError("server.max_upload_bytes", "must be positive", c.Server.MaxUploadBytes)
	}
	if c.Storage.DatasetFile == "" || c.Storage.CredentialsFile == "" {
		return errors.NewValidationError("storage", "dataset_file and credentials_file are required", nil)
	}
	if f := c.Training.DefaultTrainFraction; !(f > 0 && f < 1) {
		return errors.NewValidationError("training.default_train_fraction", "must be strictly between 0 and 1", f)
	}
	if c.Training.MaxClasses < 2 {
		return errors.NewValidationError("training.max_classes", "must be at least 2", c.Training.MaxClasses)
	}
	if c.Training.MaxIter < 1 {
		return errors.NewValidationError("training.max_iter", "must be positive", c.Training.MaxIter)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return errors.NewValidationError("auth.bcrypt_cost",
			fmt.Sprintf("must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost), c.Auth.BcryptCost)
	}
	if _, err := log.ToLogLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case log.FormatJSON, log.FormatConsole:
	default:
		return errors.NewValidationError("logging.format", "must be json or console", c.Logging.Format)
	}
	switch c.Logging.Backend {
	case log.BackendZerolog, log.BackendSlog:
	default:
		return errors.NewValidationError("logging.backend", "must be zerolog or slog", c.Logging.Backend)
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DatasetPath returns the dataset file path.
func (c *Config) DatasetPath() string { return c.resolve(c.Storage.DatasetFile) }

// CredentialsPath returns the credential file path.
func (c *Config) CredentialsPath() string { return c.resolve(c.Storage.CredentialsFile) }

// ModelDir returns the artifact directory.
func (c *Config) ModelDir() string { return c.resolve(c.Storage.ModelDir) }

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Storage.DataDir, p)
}
