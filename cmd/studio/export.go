package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/insight-studio/backend/internal/animate"
	"github.com/insight-studio/backend/internal/chart"
	"github.com/insight-studio/backend/internal/insight"
	"github.com/insight-studio/backend/internal/profile"
	"github.com/insight-studio/backend/internal/slides"
	"github.com/insight-studio/backend/internal/table"
)

var (
	// animate flags
	animCSV      string
	animKind     string
	animDuration int
	animFPS      int
	animOut      string
	animChart    chart.Config

	// profile flags
	profCSV string
	profOut string

	// present flags
	presCSV      string
	presDeck     string
	presOut      string
	presSeconds  float64
	presInsights bool
)

var animateCmd = &cobra.Command{
	Use:   "animate",
	Short: "Render an animated chart from a CSV file to MP4",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, logger, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if animDuration == 0 {
			animDuration = cfg.Rendering.DefaultDuration
		}
		if animFPS == 0 {
			animFPS = cfg.Rendering.DefaultFPS
		}
		if animDuration < 1 || animDuration > cfg.Rendering.MaxDuration {
			return fmt.Errorf("--duration must be between 1 and %d", cfg.Rendering.MaxDuration)
		}
		if animFPS < cfg.Rendering.MinFPS || animFPS > cfg.Rendering.MaxFPS {
			return fmt.Errorf("--fps must be between %d and %d", cfg.Rendering.MinFPS, cfg.Rendering.MaxFPS)
		}

		kind, err := chart.ParseKind(animKind)
		if err != nil {
			return err
		}
		t, err := table.LoadFile(animCSV)
		if err != nil {
			return err
		}

		frames, err := animate.NewGenerator(logger).Generate(t, kind, animChart, animDuration, animFPS)
		if err != nil {
			return err
		}
		path, err := newEncoder(cfg, logger).Encode(cmd.Context(), frames, float64(animFPS), animOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d frames)\n", path, len(frames))
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Write an HTML profiling report for a CSV file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, logger, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		p := &profile.Profiler{
			Threads:     cfg.Advanced.DuckDBThreads,
			MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
			Logger:      logger,
		}
		report, err := p.Profile(cmd.Context(), profCSV)
		if err != nil {
			return err
		}
		report.Source = filepath.Base(profCSV)

		f, err := os.Create(profOut)
		if err != nil {
			return err
		}
		if err := report.WriteHTML(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows, %d columns)\n", profOut, report.RowCount, len(report.Columns))
		return nil
	},
}

var presentCmd = &cobra.Command{
	Use:   "present",
	Short: "Export a slide presentation for a CSV file to MP4",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, logger, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		t, err := table.LoadFile(presCSV)
		if err != nil {
			return err
		}

		deck := &slides.Deck{}
		if presDeck != "" {
			f, err := os.Open(presDeck)
			if err != nil {
				return err
			}
			deck, err = slides.LoadDeck(f)
			f.Close()
			if err != nil {
				return err
			}
		}

		seconds := presSeconds
		if seconds == 0 {
			seconds = deck.SecondsPerSlide
		}
		if seconds == 0 {
			seconds = float64(cfg.Rendering.SecondsPerSlide)
		}
		if seconds <= 0 || seconds > slides.MaxSecondsPerSlide {
			return fmt.Errorf("--seconds must be between 0 and %d", slides.MaxSecondsPerSlide)
		}

		builder := slides.NewBuilder(cfg.Rendering.SlideWidth, cfg.Rendering.SlideHeight, logger)
		var insights *insight.InsightSet
		if presInsights {
			svc := newInsightService(cmd.Context(), cfg, logger)
			if !svc.Enabled() {
				return errors.New("--insights needs a configured API key")
			}
			set, err := svc.RequestInsights(cmd.Context(), t)
			if err != nil {
				// The deck is still worth exporting without insight slides
				logger.Warn("continuing without insights", "error", err)
			}
			insights = set
		}

		figs := builder.Build(t, insights, deck.Visualizations)
		path, err := newEncoder(cfg, logger).Encode(cmd.Context(), figs, slides.FPS(seconds), presOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d slides)\n", path, len(figs))
		return nil
	},
}

func init() {
	f := animateCmd.Flags()
	f.StringVar(&animCSV, "csv", "", "input CSV file")
	f.StringVar(&animKind, "kind", string(chart.BasicBar), "chart type (basic_bar, stacked_bar, grouped_bar, line, scatter, pie)")
	f.StringVar(&animChart.X, "x", "", "x-axis column")
	f.StringVar(&animChart.Y, "y", "", "y-axis column")
	f.StringVar(&animChart.Color, "color", "", "column splitting bars into series")
	f.StringVar(&animChart.Title, "title", "", "chart title")
	f.StringVar(&animChart.Labels, "labels", "", "pie label column (defaults to --x)")
	f.StringVar(&animChart.Values, "values", "", "pie value column (defaults to --y)")
	f.StringSliceVar(&animChart.StackColumns, "stack", nil, "numeric columns to stack")
	f.StringSliceVar(&animChart.GroupColumns, "group", nil, "numeric columns to group")
	f.IntVar(&animDuration, "duration", 0, "duration in seconds (default from config)")
	f.IntVar(&animFPS, "fps", 0, "frames per second (default from config)")
	f.StringVar(&animOut, "out", "animation.mp4", "output MP4 path")
	_ = animateCmd.MarkFlagRequired("csv")

	f = profileCmd.Flags()
	f.StringVar(&profCSV, "csv", "", "input CSV file")
	f.StringVar(&profOut, "out", profile.ReportFileName, "output HTML path")
	_ = profileCmd.MarkFlagRequired("csv")

	f = presentCmd.Flags()
	f.StringVar(&presCSV, "csv", "", "input CSV file")
	f.StringVar(&presDeck, "deck", "", "YAML deck listing the chart slides")
	f.StringVar(&presOut, "out", "presentation.mp4", "output MP4 path")
	f.Float64Var(&presSeconds, "seconds", 0, "seconds per slide (default from deck or config)")
	f.BoolVar(&presInsights, "insights", false, "request AI insight slides")
	_ = presentCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(animateCmd, profileCmd, presentCmd)
}
