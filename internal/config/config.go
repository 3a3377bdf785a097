package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/playback"
	"github.com/keagan/clipforge/internal/prefs"
	"github.com/keagan/clipforge/internal/render"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir string `yaml:"work_dir"`
	TempDir string `yaml:"temp_dir"`

	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Timeline TimelineConfig `yaml:"timeline"`
	Playback PlaybackConfig `yaml:"playback"`
	Preview  PreviewConfig  `yaml:"preview"`
	API      APIConfig      `yaml:"api"`
	Capture  CaptureConfig  `yaml:"capture"`
	Prefs    PrefsConfig    `yaml:"prefs"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
}

type TimelineConfig struct {
	HistoryLimit int     `yaml:"history_limit"`
	SnapPixels   float64 `yaml:"snap_pixels"`
	Zoom         float64 `yaml:"zoom"`
	PanPolicy    string  `yaml:"pan_policy"`
}

type PlaybackConfig struct {
	SeekTolerance float64       `yaml:"seek_tolerance"`
	SeekSettle    time.Duration `yaml:"seek_settle"`
}

type PreviewConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
	// ThumbnailDir caches preview frames sampled from the active clip
	ThumbnailDir string `yaml:"thumbnail_dir"`
}

type APIConfig struct {
	Listen string `yaml:"listen"`
}

type CaptureConfig struct {
	HelperBinary string   `yaml:"helper_binary"`
	HelperArgs   []string `yaml:"helper_args"`
	OutputDir    string   `yaml:"output_dir"`
}

type PrefsConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the editor cannot run with
func (c *Config) Validate() error {
	if c.Timeline.HistoryLimit < 0 {
		return fmt.Errorf("timeline.history_limit must not be negative")
	}
	if c.Timeline.SnapPixels < 0 {
		return fmt.Errorf("timeline.snap_pixels must not be negative")
	}
	if _, err := render.ParsePanPolicy(c.Timeline.PanPolicy); err != nil {
		return err
	}
	if c.Playback.SeekTolerance <= 0 {
		return fmt.Errorf("playback.seek_tolerance must be positive")
	}
	if c.Preview.FrameInterval <= 0 {
		return fmt.Errorf("preview.frame_interval must be positive")
	}
	return nil
}

// PlaybackOptions converts the playback section into synchronizer options
func (c *Config) PlaybackOptions() playback.Options {
	opts := playback.DefaultOptions()
	opts.SeekTolerance = c.Playback.SeekTolerance
	opts.SeekSettle = c.Playback.SeekSettle
	return opts
}

// NewView builds the timeline view the renderer starts with
func (c *Config) NewView(width, height int) render.View {
	v := render.NewView(width, height)
	if policy, err := render.ParsePanPolicy(c.Timeline.PanPolicy); err == nil {
		v.Policy = policy
	}
	if c.Timeline.Zoom > 0 {
		v.SetZoom(c.Timeline.Zoom)
	}
	return v
}

func defaultConfig() *Config {
	home := os.Getenv("HOME")
	return &Config{
		WorkDir: "./work",
		TempDir: "./temp",
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "medium",
		},
		Timeline: TimelineConfig{
			HistoryLimit: clips.DefaultHistoryLimit,
			SnapPixels:   clips.SnapThresholdPixels,
			Zoom:         1,
			PanPolicy:    string(render.PanUnbounded),
		},
		Playback: PlaybackConfig{
			SeekTolerance: playback.DefaultSeekTolerance,
			SeekSettle:    playback.DefaultSeekSettle,
		},
		Preview: PreviewConfig{
			FrameInterval: time.Second / time.Duration(prefs.DefaultPreviewRate),
			ThumbnailDir:  filepath.Join(home, ".clipforge", "thumbs"),
		},
		API: APIConfig{
			Listen: "127.0.0.1:8787",
		},
		Capture: CaptureConfig{
			HelperBinary: "clipforge-capture",
			OutputDir:    "./recordings",
		},
		Prefs: PrefsConfig{
			Path: filepath.Join(home, ".clipforge", "prefs.db"),
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./clipforge.yaml",
		"./clipforge.yml",
		filepath.Join(os.Getenv("HOME"), ".clipforge", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
