package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/insight-studio/backend/internal/config"
	"github.com/insight-studio/backend/internal/insight"
	"github.com/insight-studio/backend/internal/llm"
	"github.com/insight-studio/backend/internal/secrets"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Insight Studio: explore CSV datasets with charts, AI insights, animations and presentations",
	Long: `Insight Studio serves an interactive dashboard for uploaded CSV datasets and
exports animated charts and slide presentations as MP4 videos.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultFileName+" next to the executable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override Advanced.LogLevel (debug, info, warn, error)")
	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// configPath resolves --config, falling back to the executable's directory.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), config.DefaultFileName), nil
}

// loadConfig loads the XML configuration and builds the process logger.
func loadConfig(stderr io.Writer) (*config.AppConfig, string, *slog.Logger, error) {
	path, err := configPath()
	if err != nil {
		return nil, "", nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Advanced.LogLevel = logLevel
	}
	level, err := config.ParseLogLevel(cfg.Advanced.LogLevel)
	if err != nil {
		return nil, "", nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, path, logger, nil
}

// newInsightService wires the language model. A missing API key disables
// the insight features instead of failing startup.
func newInsightService(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) *insight.Service {
	return insight.NewService(newCompleter(ctx, cfg, logger), logger)
}

func newCompleter(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) llm.Completer {
	chain := secrets.Chain{secrets.EnvSource{Var: cfg.LLM.APIKeyEnv}}
	if cfg.LLM.SSMParameter != "" {
		src, err := secrets.LoadParamStoreSource(ctx, cfg.LLM.SSMRegion, cfg.LLM.SSMParameter)
		if err != nil {
			logger.Warn("parameter store unavailable", "parameter", cfg.LLM.SSMParameter, "error", err)
		} else {
			chain = append(chain, src)
		}
	}

	if _, err := chain.APIKey(ctx); err != nil {
		logger.Warn("language model disabled", "error", err)
		return nil
	}

	opts := []llm.Option{llm.WithBaseURL(cfg.LLM.BaseURL), llm.WithModel(cfg.LLM.Model)}
	if d := cfg.LLMTimeout(); d > 0 {
		opts = append(opts, llm.WithTimeout(d))
	}
	client, err := llm.NewClient(chain, opts...)
	if err != nil {
		logger.Warn("language model disabled", "error", err)
		return nil
	}
	logger.Info("language model enabled", "model", client.Model())
	return client
}
