// Package video rasterizes figure sequences and muxes them into an MP4.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/insight-studio/backend/internal/figure"
)

var (
	// ErrNoFrames is returned when there is nothing to encode.
	ErrNoFrames = errors.New("no frames to encode")
	// ErrUnreadableFrame is returned when the first still cannot be decoded.
	ErrUnreadableFrame = errors.New("first frame could not be read")
)

const (
	framePattern       = "frame_%05d.png"
	defaultOutputName  = "visualization.mp4"
	generatedDirPrefix = "studio-video-"
)

// Rasterizer draws one figure as a PNG.
type Rasterizer interface {
	Rasterize(fig *figure.Figure, w io.Writer) error
}

// FrameWriter accepts frames in order and finalises the container on Close.
type FrameWriter interface {
	WriteFrame(img image.Image) error
	Close() error
}

// WriterFactory opens a FrameWriter for the given output and geometry.
type WriterFactory func(ctx context.Context, outputPath string, fps float64, width, height int) (FrameWriter, error)

// Encoder turns figures into a video file.
type Encoder struct {
	rasterizer Rasterizer
	newWriter  WriterFactory
	tempRoot   string
	logger     *slog.Logger
}

// NewEncoder creates an encoder. tempRoot may be empty to use the system
// temp directory.
func NewEncoder(r Rasterizer, newWriter WriterFactory, tempRoot string, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{rasterizer: r, newWriter: newWriter, tempRoot: tempRoot, logger: logger}
}

// Encode rasterizes every frame into a scoped temporary directory, sizes the
// video from the first still and writes all stills in order at fps. When
// outputPath is empty a fresh directory under the temp root is created for
// the result. The frame directory is removed on every exit path.
func (e *Encoder) Encode(ctx context.Context, frames []*figure.Figure, fps float64, outputPath string) (string, error) {
	if fps <= 0 {
		return "", fmt.Errorf("invalid frame rate %v", fps)
	}
	if len(frames) == 0 {
		return "", ErrNoFrames
	}

	dir, err := os.MkdirTemp(e.tempRoot, "frames-")
	if err != nil {
		return "", fmt.Errorf("creating frame directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("failed to remove frame directory", "dir", dir, "error", err)
		}
	}()

	stills, err := e.rasterizeAll(ctx, frames, dir)
	if err != nil {
		return "", err
	}
	if len(stills) == 0 {
		return "", ErrNoFrames
	}

	first, err := decodePNG(stills[0])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadableFrame, err)
	}
	bounds := first.Bounds()

	if outputPath == "" {
		outDir, err := os.MkdirTemp(e.tempRoot, generatedDirPrefix)
		if err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
		outputPath = filepath.Join(outDir, defaultOutputName)
	}

	writer, err := e.newWriter(ctx, outputPath, fps, bounds.Dx(), bounds.Dy())
	if err != nil {
		return "", fmt.Errorf("opening video writer: %w", err)
	}

	if err := writeStills(ctx, writer, first, stills); err != nil {
		_ = writer.Close()
		e.discard(outputPath)
		return "", err
	}
	if err := writer.Close(); err != nil {
		e.discard(outputPath)
		return "", fmt.Errorf("finalising video: %w", err)
	}

	e.logger.Info("video encoded", "path", outputPath, "frames", len(stills), "fps", fps,
		"width", bounds.Dx(), "height", bounds.Dy())
	return outputPath, nil
}

func (e *Encoder) rasterizeAll(ctx context.Context, frames []*figure.Figure, dir string) ([]string, error) {
	stills := make([]string, 0, len(frames))
	for i, fig := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf(framePattern, i))
		if err := e.rasterizeTo(fig, path); err != nil {
			e.logger.Warn("skipping frame that failed to rasterize", "frame", i, "error", err)
			continue
		}
		stills = append(stills, path)
	}
	return stills, nil
}

func (e *Encoder) rasterizeTo(fig *figure.Figure, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.rasterizer.Rasterize(fig, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func writeStills(ctx context.Context, w FrameWriter, first image.Image, stills []string) error {
	size := first.Bounds()
	for i, path := range stills {
		if err := ctx.Err(); err != nil {
			return err
		}
		img := first
		if i > 0 {
			var err error
			if img, err = decodePNG(path); err != nil {
				return fmt.Errorf("reading frame %d: %w", i, err)
			}
		}
		if img.Bounds().Dx() != size.Dx() || img.Bounds().Dy() != size.Dy() {
			img = resize(img, size.Dx(), size.Dy())
		}
		if err := w.WriteFrame(img); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	return nil
}

func (e *Encoder) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("failed to remove partial video", "path", path, "error", err)
	}
	removeGeneratedDir(path)
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func resize(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
