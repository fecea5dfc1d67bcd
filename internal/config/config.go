package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Storage
	SlidesPath   string `yaml:"slides_path"`
	DownloadsDir string `yaml:"downloads_dir"`
	OutputDir    string `yaml:"output_dir"`
	StagingDir   string `yaml:"staging_dir"`

	// Auth for mutating routes; empty disables the check.
	APIKey string `yaml:"api_key"`

	// Persist service
	PersistURL     string        `yaml:"persist_url"`
	PersistAPIKey  string        `yaml:"persist_api_key"`
	PersistTimeout time.Duration `yaml:"persist_timeout"`

	// Download ledger
	LedgerBackend string `yaml:"ledger_backend"`
	LedgerDir     string `yaml:"ledger_dir"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPrefix   string `yaml:"redis_prefix"`

	// Capture
	PageWidth   int     `yaml:"page_width"`
	PageHeight  int     `yaml:"page_height"`
	PixelRatio  float64 `yaml:"pixel_ratio"`
	JPEGQuality int     `yaml:"jpeg_quality"`
	// LiveSettle is "none" or "frames".
	LiveSettle  string        `yaml:"live_settle"`
	BatchSettle time.Duration `yaml:"batch_settle"`

	// Export jobs
	MaxQueueSize int           `yaml:"max_queue_size"`
	JobTTL       time.Duration `yaml:"job_ttl"`
	StatsWindow  time.Duration `yaml:"stats_window"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           "8095",
		LogLevel:       "info",
		SlidesPath:     "slides.json",
		DownloadsDir:   "downloads",
		OutputDir:      "exports",
		PersistTimeout: 60 * time.Second,
		LedgerBackend:  "file",
		LedgerDir:      "data",
		RedisPrefix:    "lessondeck:",
		PageWidth:      1200,
		PageHeight:     675,
		PixelRatio:     2,
		JPEGQuality:    100,
		LiveSettle:     "none",
		BatchSettle:    2 * time.Second,
		MaxQueueSize:   16,
		JobTTL:         1 * time.Hour,
		StatsWindow:    1 * time.Hour,
		MaxUploadBytes: 52428800, // 50MB
	}
}

// Load starts from Default, overlays the YAML file named by CONFIG_FILE when
// set, then applies environment variables on top.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML path; empty skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.SlidesPath = envOr("SLIDES_PATH", cfg.SlidesPath)
	cfg.DownloadsDir = envOr("DOWNLOADS_DIR", cfg.DownloadsDir)
	cfg.OutputDir = envOr("OUTPUT_DIR", cfg.OutputDir)
	cfg.StagingDir = envOr("STAGING_DIR", cfg.StagingDir)

	cfg.APIKey = envOr("LESSONDECK_API_KEY", cfg.APIKey)

	cfg.PersistURL = envOr("PERSIST_URL", cfg.PersistURL)
	cfg.PersistAPIKey = envOr("PERSIST_API_KEY", cfg.PersistAPIKey)
	cfg.PersistTimeout = envDuration("PERSIST_TIMEOUT", cfg.PersistTimeout)

	cfg.LedgerBackend = envOr("LEDGER_BACKEND", cfg.LedgerBackend)
	cfg.LedgerDir = envOr("LEDGER_DIR", cfg.LedgerDir)
	cfg.RedisAddr = envOr("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPrefix = envOr("REDIS_PREFIX", cfg.RedisPrefix)

	cfg.PageWidth = envInt("PAGE_WIDTH", cfg.PageWidth)
	cfg.PageHeight = envInt("PAGE_HEIGHT", cfg.PageHeight)
	cfg.PixelRatio = envFloat("PIXEL_RATIO", cfg.PixelRatio)
	cfg.JPEGQuality = envInt("JPEG_QUALITY", cfg.JPEGQuality)
	cfg.LiveSettle = envOr("LIVE_SETTLE", cfg.LiveSettle)
	cfg.BatchSettle = envDuration("BATCH_SETTLE", cfg.BatchSettle)

	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	// The default persist target is this server, which checks its own key.
	if cfg.PersistURL == "" {
		cfg.PersistURL = "http://localhost:" + cfg.Port
		if cfg.PersistAPIKey == "" {
			cfg.PersistAPIKey = cfg.APIKey
		}
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	return cfg, nil
}

// overlayFile applies the keys present in a YAML file. Absent keys keep
// their current values.
func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.LedgerBackend {
	case "memory", "file":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis ledger backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("LEDGER_BACKEND %q must be memory, file or redis", c.LedgerBackend))
	}
	if c.SlidesPath == "" {
		errs = append(errs, errors.New("SLIDES_PATH is required"))
	}
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		errs = append(errs, fmt.Errorf("page size %dx%d must be positive", c.PageWidth, c.PageHeight))
	}
	if c.PixelRatio <= 0 {
		errs = append(errs, fmt.Errorf("PIXEL_RATIO %v must be positive", c.PixelRatio))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY %d must be within 1..100", c.JPEGQuality))
	}
	if c.LiveSettle != "none" && c.LiveSettle != "frames" {
		errs = append(errs, fmt.Errorf("LIVE_SETTLE %q must be none or frames", c.LiveSettle))
	}
	if c.PersistTimeout <= 0 {
		errs = append(errs, errors.New("PERSIST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
