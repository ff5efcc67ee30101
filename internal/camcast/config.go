package camcast

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"camcast/pkg/media"
	"camcast/pkg/rtp"
	"camcast/pkg/rtsp"
	"camcast/pkg/stream"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no -config flag is given
const DefaultConfigPath = "configs/default.yaml"

// ErrInvalidConfig is returned for configuration that can never work. It is fatal at startup.
var ErrInvalidConfig = errors.New("camcast: invalid configuration")

type Config struct {
	RTSP    RTSPConfig    `yaml:"rtsp"`
	Media   MediaConfig   `yaml:"media"`
	Source  SourceConfig  `yaml:"source"`
	Encoder EncoderConfig `yaml:"encoder"`
	Logging LoggingConfig `yaml:"logging"`
}

type RTSPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ServerName      string        `yaml:"server_name"`
	SessionName     string        `yaml:"session_name"`
}

type MediaConfig struct {
	Port            int           `yaml:"port"` // fallback destination port when SETUP names none
	MaxDatagramSize int           `yaml:"max_datagram_size"`
	PayloadType     int           `yaml:"payload_type"`
	Pace            time.Duration `yaml:"pace"`
	SSRC            uint32        `yaml:"ssrc"`
	StopTimeout     time.Duration `yaml:"stop_timeout"`
}

type SourceConfig struct {
	Type   string `yaml:"type"`
	Path   string `yaml:"path"`
	FPS    int    `yaml:"fps"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Limit  int    `yaml:"limit"`
	Loop   bool   `yaml:"loop"`
}

type EncoderConfig struct {
	Quality int `yaml:"quality"`
}

type LoggingConfig struct {
	Level         string        `yaml:"level"`
	StatsInterval time.Duration `yaml:"stats_interval"` // 0 disables periodic status logs
}

// DefaultConfig returns a configuration that runs without any file
func DefaultConfig() *Config {
	return &Config{
		RTSP: RTSPConfig{
			Port:            rtsp.DefaultRTSPPort,
			ShutdownTimeout: rtsp.DefaultShutdownTimeout,
			ServerName:      rtsp.DefaultServerName,
			SessionName:     "RTSP Stream",
		},
		Media: MediaConfig{
			Port:            rtsp.DefaultMediaPort,
			MaxDatagramSize: rtp.DefaultMaxDatagramSize,
			PayloadType:     rtp.PayloadTypeJPEG,
			Pace:            stream.DefaultPace,
			StopTimeout:     stream.DefaultStopTimeout,
		},
		Source: SourceConfig{
			Type:   media.SourcePattern,
			FPS:    15,
			Width:  640,
			Height: 480,
			Loop:   true,
		},
		Encoder: EncoderConfig{
			Quality: media.DefaultJPEGQuality,
		},
		Logging: LoggingConfig{
			Level:         "info",
			StatsInterval: time.Minute,
		},
	}
}

// LoadConfig loads configuration from a yaml file on top of the defaults.
// A missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("Config file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.RTSP.Port <= 0 || c.RTSP.Port > 65535 {
		return fmt.Errorf("%w: invalid rtsp port: %d (must be between 1-65535)", ErrInvalidConfig, c.RTSP.Port)
	}
	if c.RTSP.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: invalid rtsp shutdown_timeout: %s", ErrInvalidConfig, c.RTSP.ShutdownTimeout)
	}

	if c.Media.Port <= 0 || c.Media.Port > 65535 {
		return fmt.Errorf("%w: invalid media port: %d (must be between 1-65535)", ErrInvalidConfig, c.Media.Port)
	}
	if c.Media.PayloadType < 0 || c.Media.PayloadType > 127 {
		return fmt.Errorf("%w: invalid payload_type: %d (must be between 0-127)", ErrInvalidConfig, c.Media.PayloadType)
	}
	if _, err := rtp.NewFramer(uint8(c.Media.PayloadType), c.Media.MaxDatagramSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Media.Pace < 0 {
		return fmt.Errorf("%w: invalid media pace: %s (must be non-negative)", ErrInvalidConfig, c.Media.Pace)
	}
	if c.Media.StopTimeout <= 0 {
		return fmt.Errorf("%w: invalid media stop_timeout: %s", ErrInvalidConfig, c.Media.StopTimeout)
	}

	switch c.Source.Type {
	case media.SourcePattern:
		if c.Source.Width <= 0 || c.Source.Height <= 0 {
			return fmt.Errorf("%w: invalid pattern size: %dx%d", ErrInvalidConfig, c.Source.Width, c.Source.Height)
		}
	case media.SourceDir:
		if c.Source.Path == "" {
			return fmt.Errorf("%w: source path is required for type %q", ErrInvalidConfig, media.SourceDir)
		}
	default:
		return fmt.Errorf("%w: unknown source type: %q (must be one of: %s, %s)", ErrInvalidConfig, c.Source.Type, media.SourcePattern, media.SourceDir)
	}
	if c.Source.FPS < 0 {
		return fmt.Errorf("%w: invalid source fps: %d (must be non-negative)", ErrInvalidConfig, c.Source.FPS)
	}
	if c.Source.Limit < 0 {
		return fmt.Errorf("%w: invalid source limit: %d (must be non-negative)", ErrInvalidConfig, c.Source.Limit)
	}

	if c.Encoder.Quality < 1 || c.Encoder.Quality > 100 {
		return fmt.Errorf("%w: invalid encoder quality: %d (must be between 1-100)", ErrInvalidConfig, c.Encoder.Quality)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if strings.ToLower(c.Logging.Level) == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: invalid log level: %s (must be one of: %v)", ErrInvalidConfig, c.Logging.Level, validLevels)
	}
	if c.Logging.StatsInterval < 0 {
		return fmt.Errorf("%w: invalid stats_interval: %s (must be non-negative)", ErrInvalidConfig, c.Logging.StatsInterval)
	}

	return nil
}

// GetSlogLevel returns slog.Level from config
func (c *Config) GetSlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StreamConfig returns the streamer settings
func (c *Config) StreamConfig() stream.Config {
	return stream.Config{
		MaxDatagramSize: c.Media.MaxDatagramSize,
		PayloadType:     uint8(c.Media.PayloadType),
		Pace:            c.Media.Pace,
		StopTimeout:     c.Media.StopTimeout,
		SSRC:            c.Media.SSRC,
	}
}

// ServerConfig returns the control server settings
func (c *Config) ServerConfig() rtsp.ServerConfig {
	return rtsp.ServerConfig{
		Port:            c.RTSP.Port,
		MediaPort:       c.Media.Port,
		ServerName:      c.RTSP.ServerName,
		SessionName:     c.RTSP.SessionName,
		PayloadType:     uint8(c.Media.PayloadType),
		ShutdownTimeout: c.RTSP.ShutdownTimeout,
	}
}

// MediaSourceConfig returns the frame source settings
func (c *Config) MediaSourceConfig() media.SourceConfig {
	return media.SourceConfig{
		Type:   c.Source.Type,
		Path:   c.Source.Path,
		FPS:    c.Source.FPS,
		Width:  c.Source.Width,
		Height: c.Source.Height,
		Limit:  c.Source.Limit,
		Loop:   c.Source.Loop,
	}
}
