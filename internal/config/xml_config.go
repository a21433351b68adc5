// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultFileName is the config file looked up next to the executable.
const DefaultFileName = "InsightStudio.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"InsightStudio"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Remote language model configuration
	LLM LLMConfig `xml:"LLM"`

	// Figure and video rendering
	Rendering RenderingConfig `xml:"Rendering"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	TempDirectory    string `xml:"TempDirectory"`
}

// ProcessingConfig contains session and response settings
type ProcessingConfig struct {
	MaxSessions            int  `xml:"MaxSessions"`
	SessionTimeoutMinutes  int  `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes"`
	UploadRetentionMinutes int  `xml:"UploadRetentionMinutes"`
	EnableCompression      bool `xml:"EnableCompression"`
	CompressionLevel       int  `xml:"CompressionLevel"`
	PreviewRows            int  `xml:"PreviewRows"`
}

// LLMConfig configures the chat completion endpoint
type LLMConfig struct {
	BaseURL          string `xml:"BaseURL"`
	Model            string `xml:"Model"`
	APIKeyEnv        string `xml:"APIKeyEnv"`
	SSMParameter     string `xml:"SSMParameter"`
	SSMRegion        string `xml:"SSMRegion"`
	TimeoutSeconds   int    `xml:"TimeoutSeconds"`
	InsightsOnUpload bool   `xml:"InsightsOnUpload"`
}

// RenderingConfig contains figure, animation and video settings
type RenderingConfig struct {
	Width           int    `xml:"Width"`
	Height          int    `xml:"Height"`
	SlideWidth      int    `xml:"SlideWidth"`
	SlideHeight     int    `xml:"SlideHeight"`
	FFmpegPath      string `xml:"FFmpegPath"`
	DefaultDuration int    `xml:"DefaultDurationSeconds"`
	DefaultFPS      int    `xml:"DefaultFPS"`
	MaxDuration     int    `xml:"MaxDurationSeconds"`
	MinFPS          int    `xml:"MinFPS"`
	MaxFPS          int    `xml:"MaxFPS"`
	SecondsPerSlide int    `xml:"SecondsPerSlide"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	SessionSecret     string `xml:"SessionSecret"`
	SecureCookies     bool   `xml:"SecureCookies"`
	AllowFileDeletion bool   `xml:"AllowFileDeletion"`
	AllowedFileTypes  string `xml:"AllowedFileTypes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	DuckDBThreads        int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit    string `xml:"DuckDBMemoryLimit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  60,
			WriteTimeout: 300,
			IdleTimeout:  120,
			BodyLimit:    "200M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			TempDirectory:    "./data/temp",
		},
		Processing: ProcessingConfig{
			MaxSessions:            100,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			UploadRetentionMinutes: 24 * 60,
			EnableCompression:      true,
			CompressionLevel:       5,
			PreviewRows:            5,
		},
		LLM: LLMConfig{
			BaseURL:          "https://api.groq.com/openai/v1",
			Model:            "mixtral-8x7b-32768",
			APIKeyEnv:        "GROQ_API_KEY",
			InsightsOnUpload: true,
		},
		Rendering: RenderingConfig{
			Width:           1280,
			Height:          720,
			SlideWidth:      1920,
			SlideHeight:     1080,
			FFmpegPath:      "ffmpeg",
			DefaultDuration: 5,
			DefaultFPS:      30,
			MaxDuration:     10,
			MinFPS:          24,
			MaxFPS:          60,
			SecondsPerSlide: 2,
		},
		Security: SecurityConfig{
			AllowFileDeletion: true,
			AllowedFileTypes:  ".csv,.txt",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			DuckDBThreads:        4,
			DuckDBMemoryLimit:    "1GB",
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// First run: write the defaults so they can be edited
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Insight Studio Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.TempDirectory = filepath.Join(dataDir, "temp")
	}
	if tempDir := os.Getenv("STUDIO_TEMP_DIR"); tempDir != "" {
		c.Storage.TempDirectory = tempDir
	}
	if ffmpeg := os.Getenv("FFMPEG_PATH"); ffmpeg != "" {
		c.Rendering.FFmpegPath = ffmpeg
	}
	if model := os.Getenv("STUDIO_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if secret := os.Getenv("STUDIO_SESSION_SECRET"); secret != "" {
		c.Security.SessionSecret = secret
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.TempDirectory,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// Validate rejects settings the server cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("Server.Port %d out of range", c.Server.Port))
	}
	r := c.Rendering
	if r.Width <= 0 || r.Height <= 0 || r.SlideWidth <= 0 || r.SlideHeight <= 0 {
		errs = append(errs, errors.New("Rendering sizes must be positive"))
	}
	if r.MinFPS <= 0 || r.MaxFPS < r.MinFPS {
		errs = append(errs, fmt.Errorf("Rendering FPS bounds [%d,%d] invalid", r.MinFPS, r.MaxFPS))
	}
	if r.MaxDuration <= 0 {
		errs = append(errs, errors.New("Rendering.MaxDurationSeconds must be positive"))
	}
	if _, err := ParseLogLevel(c.Advanced.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("Advanced.LogLevel %q is not one of debug, info, warn, error", s)
}

// AllowedExtensions splits Security.AllowedFileTypes.
func (c *AppConfig) AllowedExtensions() []string {
	var exts []string
	for _, ext := range strings.Split(c.Security.AllowedFileTypes, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// SessionTimeout is the idle age after which sessions are dropped.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Processing.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval is how often the janitor runs.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Processing.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}

// UploadRetention is how long uploaded files are kept.
func (c *AppConfig) UploadRetention() time.Duration {
	return time.Duration(c.Processing.UploadRetentionMinutes) * time.Minute
}

// LLMTimeout is the completion request timeout; zero leaves the transport default.
func (c *AppConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.TempDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
