package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Environment variables that override file values.
const (
	EnvConfigPath = "DRAFTDESK_CONFIG"
	EnvAPIURL     = "DRAFTDESK_API_URL"
	EnvLogLevel   = "DRAFTDESK_LOG_LEVEL"

	EnvS3AccessKeyID     = "S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "S3_SECRET_ACCESS_KEY"
)

const DefaultConfigPath = "config.yaml"

// Config represents the complete configuration structure
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Client  ClientConfig  `yaml:"client"`
	Editor  EditorConfig  `yaml:"editor"`
	Preview PreviewConfig `yaml:"preview"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"5000"`
	// Origin allowed to call the API from a browser. Empty disables CORS headers.
	CORSOrigin string `yaml:"cors_origin" default:"*"`
}

type StorageConfig struct {
	Driver      string   `yaml:"driver" default:"sqlite"`
	SQLitePath  string   `yaml:"sqlite_path" default:"./database.db"`
	Compression string   `yaml:"compression" default:"zstd"`
	S3          S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket" default:""`
	Endpoint  string `yaml:"endpoint" default:""`
	Region    string `yaml:"region" default:"auto"`
	Prefix    string `yaml:"prefix" default:"blogs/"`
	PathStyle bool   `yaml:"path_style" default:"false"`
}

type ClientConfig struct {
	BaseURL string `yaml:"base_url" default:"http://localhost:5000/api"`
	// Zero means requests never time out.
	RequestTimeout time.Duration `yaml:"request_timeout" default:"0s"`
}

type EditorConfig struct {
	AutosaveInterval time.Duration `yaml:"autosave_interval" default:"30s"`
	Debounce         time.Duration `yaml:"debounce" default:"5s"`
}

type PreviewConfig struct {
	SyntaxStyle string `yaml:"syntax_style" default:"gruvbox"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return errors.Wrap(err, "failed to parse config file")
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// Path returns the config file location, honouring DRAFTDESK_CONFIG.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}

func applyEnv(config *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		config.Client.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "memory":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage driver s3 requires storage.s3.bucket")
		}
	default:
		return errors.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	switch c.Storage.Compression {
	case "zstd", "gzip":
	default:
		return errors.Errorf("unsupported compression %q", c.Storage.Compression)
	}

	if c.Editor.AutosaveInterval <= 0 || c.Editor.Debounce <= 0 {
		return errors.New("editor intervals must be positive")
	}
	if c.Client.RequestTimeout < 0 {
		return errors.New("client.request_timeout must not be negative")
	}
	return nil
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if d, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(d))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
