package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrEncoderUnavailable is returned when the ffmpeg binary cannot be found.
var ErrEncoderUnavailable = errors.New("ffmpeg not found")

// FFmpegWriter streams PNG frames into an ffmpeg process producing H.264 MP4.
type FFmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
	enc    png.Encoder
	closed bool
}

// FFmpeg returns a WriterFactory backed by the given ffmpeg binary.
func FFmpeg(binary string) WriterFactory {
	return func(ctx context.Context, outputPath string, fps float64, width, height int) (FrameWriter, error) {
		return NewFFmpegWriter(ctx, binary, outputPath, fps, width, height)
	}
}

// NewFFmpegWriter starts ffmpeg reading an image2pipe stream on stdin.
func NewFFmpegWriter(ctx context.Context, binary, outputPath string, fps float64, width, height int) (*FFmpegWriter, error) {
	if binary == "" {
		binary = "ffmpeg"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoderUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, path, ffmpegArgs(outputPath, fps, width, height)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening ffmpeg stdin: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	return &FFmpegWriter{
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
		enc:    png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

// ffmpegArgs builds the command line. Output dimensions are rounded down to
// even numbers as yuv420p requires, and the output rate never drops below
// one frame per second so slide decks stay playable.
func ffmpegArgs(outputPath string, fps float64, width, height int) []string {
	rate := strconv.FormatFloat(fps, 'f', -1, 64)
	outRate := strconv.FormatFloat(math.Max(fps, 1), 'f', -1, 64)
	return []string{
		"-y",
		"-loglevel", "error",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-framerate", rate,
		"-i", "-",
		"-vf", fmt.Sprintf("scale=%d:%d", width&^1, height&^1),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", outRate,
		"-movflags", "+faststart",
		outputPath,
	}
}

// WriteFrame encodes img and pipes it to ffmpeg.
func (w *FFmpegWriter) WriteFrame(img image.Image) error {
	if w.closed {
		return errors.New("writer is closed")
	}
	if err := w.enc.Encode(w.stdin, img); err != nil {
		return fmt.Errorf("piping frame to ffmpeg: %w%s", err, w.stderrSuffix())
	}
	return nil
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (w *FFmpegWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	closeErr := w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w%s", err, w.stderrSuffix())
	}
	return closeErr
}

func (w *FFmpegWriter) stderrSuffix() string {
	msg := strings.TrimSpace(w.stderr.String())
	if msg == "" {
		return ""
	}
	return ": " + msg
}
