package config

import "time"

const (
	ModelTypeGemini = "gemini"
	ModelTypeOpenAI = "openai"

	ReplyFormatLines = "lines"
	ReplyFormatJSON  = "json"

	JournalDriverMemory   = "memory"
	JournalDriverSQLite   = "sqlite"
	JournalDriverPostgres = "postgres"
	JournalDriverRedis    = "redis"
	JournalDriverNone     = "none"
)

// DefaultConfig returns the configuration used when no file or env override is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:              "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
			ReadTimeout:     60 * time.Second,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir:   "web",
			CORSOrigins: []string{"*"},
			EnableDocs:  true,
		},
		Model: ModelConfig{
			Type:        ModelTypeGemini,
			ModelName:   "gemini-2.5-flash",
			Timeout:     30 * time.Second,
			Temperature: 0.2,
			MaxTokens:   512,
		},
		Image: ImageConfig{
			MaxDimension:    1024,
			JPEGQuality:     75,
			MaxUploadBytes:  64 << 20,
			MaxSourcePixels: 64_000_000,
			AllowedFormats:  []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"},
			EnableDeepScan:  true,
		},
		Analysis: AnalysisConfig{
			ReplyFormat:        ReplyFormatLines,
			InvalidImageStatus: 500,
		},
		Journal: JournalConfig{
			Driver:   JournalDriverMemory,
			DSN:      "data/food-analyzer.db",
			Capacity: 200,
			Redis: JournalRedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "food-analyzer",
			},
		},
		Events: EventsConfig{
			AsyncWorkers: 2,
			QueueSize:    256,
		},
	}
}
