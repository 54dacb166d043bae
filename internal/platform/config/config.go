package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Web      WebConfig      `yaml:"web" mapstructure:"web"`
	Model    ModelConfig    `yaml:"model" mapstructure:"model"`
	Image    ImageConfig    `yaml:"image" mapstructure:"image"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Journal  JournalConfig  `yaml:"journal" mapstructure:"journal"`
	Events   EventsConfig   `yaml:"events" mapstructure:"events"`
}

type ServerConfig struct {
	IP              string        `yaml:"ip" mapstructure:"ip"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
}

type LogConfig struct {
	Level string `yaml:"log_level" mapstructure:"log_level"`
	Dir   string `yaml:"log_dir" mapstructure:"log_dir"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

type WebConfig struct {
	StaticDir   string   `yaml:"static_dir" mapstructure:"static_dir"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	EnableDocs  bool     `yaml:"enable_docs" mapstructure:"enable_docs"`
}

// ModelConfig selects and parameterizes the hosted vision model.
type ModelConfig struct {
	Type        string        `yaml:"type" mapstructure:"type"`
	ModelName   string        `yaml:"model_name" mapstructure:"model_name"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

type ImageConfig struct {
	MaxDimension    int      `yaml:"max_dimension" mapstructure:"max_dimension"`
	JPEGQuality     int      `yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	MaxSourcePixels int64    `yaml:"max_source_pixels" mapstructure:"max_source_pixels"`
	AllowedFormats  []string `yaml:"allowed_formats" mapstructure:"allowed_formats"`
	EnableDeepScan  bool     `yaml:"enable_deep_scan" mapstructure:"enable_deep_scan"`
}

type AnalysisConfig struct {
	// ReplyFormat is "lines" or "json".
	ReplyFormat string `yaml:"reply_format" mapstructure:"reply_format"`
	// InvalidImageStatus is the HTTP status for undecodable uploads, 500 or 400.
	InvalidImageStatus int `yaml:"invalid_image_status" mapstructure:"invalid_image_status"`
}

type JournalConfig struct {
	Driver   string             `yaml:"driver" mapstructure:"driver"`
	DSN      string             `yaml:"dsn" mapstructure:"dsn"`
	Capacity int                `yaml:"capacity" mapstructure:"capacity"`
	Redis    JournalRedisConfig `yaml:"redis" mapstructure:"redis"`
}

type JournalRedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `yaml:"db,omitempty" mapstructure:"db"`
	Prefix   string `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

type EventsConfig struct {
	AsyncWorkers int `yaml:"async_workers" mapstructure:"async_workers"`
	QueueSize    int `yaml:"queue_size" mapstructure:"queue_size"`
}
