// Package config resolves the supervisor settings from defaults, an optional
// TOML file, the environment (including a .env file) and command-line flags,
// in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Settings holds everything the server needs to run the stream supervisor.
type Settings struct {
	Port            string `toml:"port"`
	SourceURL       string `toml:"source_url"`
	StreamCount     int    `toml:"stream_count"`
	SegmentDuration int    `toml:"segment_duration"`
	PlaylistSize    int    `toml:"playlist_size"`
	OutputDir       string `toml:"output_dir"`
	FFmpegPath      string `toml:"ffmpeg_path"`
	RestartDelayMs  int    `toml:"restart_delay_ms"`
	CORSOrigin      string `toml:"cors_origin"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
}

const (
	DefaultPort            = "4000"
	DefaultSourceURL       = "rtsp://127.0.0.1:8554/live"
	DefaultStreamCount     = 6
	DefaultSegmentDuration = 2
	DefaultPlaylistSize    = 10
	DefaultOutputDir       = "public/streams"
	ProductionOutputDir    = "/tmp/streams"
	DefaultFFmpegPath      = "ffmpeg"
	DefaultRestartDelayMs  = 1000
)

// Defaults returns the built-in settings. APP_ENV=production moves the
// output root to /tmp/streams.
func Defaults() Settings {
	outputDir := DefaultOutputDir
	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		outputDir = ProductionOutputDir
	}
	return Settings{
		Port:            DefaultPort,
		SourceURL:       DefaultSourceURL,
		StreamCount:     DefaultStreamCount,
		SegmentDuration: DefaultSegmentDuration,
		PlaylistSize:    DefaultPlaylistSize,
		OutputDir:       outputDir,
		FFmpegPath:      DefaultFFmpegPath,
		RestartDelayMs:  DefaultRestartDelayMs,
		CORSOrigin:      "*",
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// LoadDotEnv reads .env files into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides s with any of the recognised environment variables.
// Integer variables that fail to parse are ignored.
func ApplyEnv(s *Settings) {
	s.Port = envString("PORT", s.Port)
	s.SourceURL = envString("RTSP_URL", s.SourceURL)
	s.StreamCount = envInt("STREAM_COUNT", s.StreamCount)
	s.SegmentDuration = envInt("HLS_SEGMENT_DURATION", s.SegmentDuration)
	s.PlaylistSize = envInt("HLS_PLAYLIST_SIZE", s.PlaylistSize)
	s.OutputDir = envString("OUTPUT_DIR", s.OutputDir)
	s.FFmpegPath = envString("FFMPEG_PATH", s.FFmpegPath)
	s.RestartDelayMs = envInt("RESTART_DELAY_MS", s.RestartDelayMs)
	s.CORSOrigin = envString("CORS_ORIGIN", s.CORSOrigin)
	s.LogLevel = envString("LOG_LEVEL", s.LogLevel)
	s.LogFormat = envString("LOG_FORMAT", s.LogFormat)
}

// RestartDelay returns the configured relaunch delay.
func (s Settings) RestartDelay() time.Duration {
	return time.Duration(s.RestartDelayMs) * time.Millisecond
}

// Addr returns the listen address for the HTTP server.
func (s Settings) Addr() string {
	if strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// Validate reports every invalid field at once.
func (s Settings) Validate() error {
	var result *multierror.Error
	if strings.TrimSpace(s.Port) == "" {
		result = multierror.Append(result, errors.New("port must not be empty"))
	}
	if strings.TrimSpace(s.SourceURL) == "" {
		result = multierror.Append(result, errors.New("source url must not be empty"))
	}
	if s.StreamCount < 1 {
		result = multierror.Append(result, fmt.Errorf("stream count must be positive, got %d", s.StreamCount))
	}
	if s.SegmentDuration < 1 {
		result = multierror.Append(result, fmt.Errorf("segment duration must be positive, got %d", s.SegmentDuration))
	}
	if s.PlaylistSize < 1 {
		result = multierror.Append(result, fmt.Errorf("playlist size must be positive, got %d", s.PlaylistSize))
	}
	if strings.TrimSpace(s.OutputDir) == "" {
		result = multierror.Append(result, errors.New("output dir must not be empty"))
	}
	if strings.TrimSpace(s.FFmpegPath) == "" {
		result = multierror.Append(result, errors.New("ffmpeg path must not be empty"))
	}
	if s.RestartDelayMs < 0 {
		result = multierror.Append(result, fmt.Errorf("restart delay must not be negative, got %dms", s.RestartDelayMs))
	}
	return result.ErrorOrNil()
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
