package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "food-analyzer-go/internal/platform/errors"
)

const (
	EnvConfigPath  = "FOOD_ANALYZER_CONFIG"
	EnvGoogleKey   = "GOOGLE_API_KEY"
	EnvModelAPIKey = "FOOD_ANALYZER_MODEL_API_KEY"

	defaultConfigPath = "config.yaml"
)

// Loader reads .env, an optional YAML file and environment overrides, then validates.
type Loader struct {
	useDotEnv bool
	path      string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that reads .env and the process environment.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the YAML file. A pinned path that does not exist is an error.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv overrides the environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration, its origin path and any
// non-fatal notes collected before logging is available.
type Result struct {
	Config *Config
	Path   string
	Notes  []string
}

// Load builds the effective configuration. A missing model credential fails here
// so the process never starts serving without one.
func (l *Loader) Load() (*Result, error) {
	res := &Result{Config: DefaultConfig()}

	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			res.Notes = append(res.Notes, ".env not found, using process environment")
		}
	}

	path, pinned := l.path, l.path != ""
	if !pinned {
		if v, ok := l.lookupEnv(EnvConfigPath); ok && strings.TrimSpace(v) != "" {
			path, pinned = strings.TrimSpace(v), true
		} else {
			path = defaultConfigPath
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, res.Config); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "parse "+path, err)
		}
		res.Path = path
	case os.IsNotExist(err) && !pinned:
		res.Notes = append(res.Notes, fmt.Sprintf("%s not found, using defaults", path))
	default:
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "read "+path, err)
	}

	if err := l.applyEnv(res.Config); err != nil {
		return nil, err
	}
	if err := l.validate(res.Config); err != nil {
		return nil, err
	}
	return res, nil
}

func (l *Loader) env(key string) (string, bool) {
	v, ok := l.lookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (l *Loader) applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := l.env(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := l.env(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "config.env", key+" must be an integer", err)
		}
		*dst = n
		return nil
	}

	// The generic key wins over the provider-specific one.
	setString(EnvGoogleKey, &cfg.Model.APIKey)
	setString(EnvModelAPIKey, &cfg.Model.APIKey)

	setString("FOOD_ANALYZER_HOST", &cfg.Server.IP)
	setString("FOOD_ANALYZER_LOG_LEVEL", &cfg.Log.Level)
	setString("FOOD_ANALYZER_LOG_DIR", &cfg.Log.Dir)
	setString("FOOD_ANALYZER_STATIC_DIR", &cfg.Web.StaticDir)
	setString("FOOD_ANALYZER_MODEL_TYPE", &cfg.Model.Type)
	setString("FOOD_ANALYZER_MODEL_NAME", &cfg.Model.ModelName)
	setString("FOOD_ANALYZER_MODEL_BASE_URL", &cfg.Model.BaseURL)
	setString("FOOD_ANALYZER_REPLY_FORMAT", &cfg.Analysis.ReplyFormat)
	setString("FOOD_ANALYZER_JOURNAL_DRIVER", &cfg.Journal.Driver)
	setString("FOOD_ANALYZER_JOURNAL_DSN", &cfg.Journal.DSN)
	setString("FOOD_ANALYZER_REDIS_ADDR", &cfg.Journal.Redis.Addr)
	setString("FOOD_ANALYZER_REDIS_PASSWORD", &cfg.Journal.Redis.Password)

	if v, ok := l.env("FOOD_ANALYZER_CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Web.CORSOrigins = origins
	}

	if err := setInt("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := setInt("FOOD_ANALYZER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := setInt("FOOD_ANALYZER_INVALID_IMAGE_STATUS", &cfg.Analysis.InvalidImageStatus); err != nil {
		return err
	}

	if v, ok := l.env("FOOD_ANALYZER_MODEL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "config.env", "FOOD_ANALYZER_MODEL_TIMEOUT must be a duration", err)
		}
		cfg.Model.Timeout = d
	}
	return nil
}

func (l *Loader) validate(cfg *Config) error {
	fail := func(msg string) error {
		return platformerrors.New(platformerrors.KindConfig, "config.validate", msg)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fail(fmt.Sprintf("invalid server port: %d", cfg.Server.Port))
	}
	if cfg.Model.Timeout <= 0 {
		return fail("model.timeout must be positive")
	}
	switch strings.ToLower(cfg.Model.Type) {
	case ModelTypeGemini, ModelTypeOpenAI:
		cfg.Model.Type = strings.ToLower(cfg.Model.Type)
	default:
		return fail(fmt.Sprintf("unsupported model.type %q", cfg.Model.Type))
	}
	if strings.TrimSpace(cfg.Model.ModelName) == "" {
		return fail("model.model_name is required")
	}
	if cfg.Image.MaxDimension <= 0 {
		return fail("image.max_dimension must be positive")
	}
	if cfg.Image.JPEGQuality < 1 || cfg.Image.JPEGQuality > 100 {
		return fail(fmt.Sprintf("image.jpeg_quality out of range: %d", cfg.Image.JPEGQuality))
	}
	if cfg.Image.MaxUploadBytes <= 0 {
		return fail("image.max_upload_bytes must be positive")
	}
	switch cfg.Analysis.ReplyFormat {
	case ReplyFormatLines, ReplyFormatJSON:
	default:
		return fail(fmt.Sprintf("unsupported analysis.reply_format %q", cfg.Analysis.ReplyFormat))
	}
	if cfg.Analysis.InvalidImageStatus != 400 && cfg.Analysis.InvalidImageStatus != 500 {
		return fail(fmt.Sprintf("analysis.invalid_image_status must be 400 or 500, got %d", cfg.Analysis.InvalidImageStatus))
	}
	switch cfg.Journal.Driver {
	case JournalDriverMemory, JournalDriverSQLite, JournalDriverPostgres, JournalDriverRedis, JournalDriverNone:
	default:
		return fail(fmt.Sprintf("unknown journal.driver %q", cfg.Journal.Driver))
	}
	if strings.TrimSpace(cfg.Model.APIKey) == "" {
		return fail(fmt.Sprintf("model API key is missing: set %s or %s", EnvGoogleKey, EnvModelAPIKey))
	}
	return nil
}
