package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/testutil"
)

// sizeRasterizer draws a blank PNG whose size comes from the figure layout.
type sizeRasterizer struct {
	failTitle string
	garbage   bool
}

func (r sizeRasterizer) Rasterize(fig *figure.Figure, w io.Writer) error {
	if r.failTitle != "" && fig.Layout.Title == r.failTitle {
		return errors.New("boom")
	}
	if r.garbage {
		_, err := w.Write([]byte("not a png"))
		return err
	}
	return png.Encode(w, image.NewRGBA(image.Rect(0, 0, fig.Layout.Width, fig.Layout.Height)))
}

type recordingWriter struct {
	path   string
	sizes  []image.Point
	closed bool
}

func (w *recordingWriter) WriteFrame(img image.Image) error {
	w.sizes = append(w.sizes, img.Bounds().Size())
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return os.WriteFile(w.path, []byte(fmt.Sprintf("%d frames", len(w.sizes))), 0o644)
}

type writerRecorder struct {
	opened []*recordingWriter
	fps    float64
	width  int
	height int
}

func (r *writerRecorder) factory(_ context.Context, path string, fps float64, width, height int) (FrameWriter, error) {
	w := &recordingWriter{path: path}
	r.opened = append(r.opened, w)
	r.fps, r.width, r.height = fps, width, height
	return w, nil
}

func frames(n, width, height int) []*figure.Figure {
	out := make([]*figure.Figure, n)
	for i := range out {
		out[i] = &figure.Figure{Layout: figure.Layout{Title: fmt.Sprintf("f%d", i), Width: width, Height: height}}
	}
	return out
}

func frameDirs(t *testing.T, root string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, "frames-*"))
	require.NoError(t, err)
	return matches
}

func TestEncode_WritesAllFramesAndCleansUp(t *testing.T) {
	root := t.TempDir()
	rec := &writerRecorder{}
	enc := NewEncoder(sizeRasterizer{}, rec.factory, root, testutil.NewTestLogger(t))

	out := filepath.Join(root, "out.mp4")
	path, err := enc.Encode(context.Background(), frames(12, 64, 48), 24, out)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	require.Len(t, rec.opened, 1)
	assert.Equal(t, 24.0, rec.fps)
	assert.Equal(t, 64, rec.width)
	assert.Equal(t, 48, rec.height)
	assert.Len(t, rec.opened[0].sizes, 12)
	assert.True(t, rec.opened[0].closed)

	assert.Empty(t, frameDirs(t, root), "frame directory must be removed")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "12 frames", string(data))
}

func TestEncode_GeneratedOutputAndDataURI(t *testing.T) {
	root := t.TempDir()
	rec := &writerRecorder{}
	enc := NewEncoder(sizeRasterizer{}, rec.factory, root, testutil.NewTestLogger(t))

	path, err := enc.Encode(context.Background(), frames(3, 32, 32), 0.5, "")
	require.NoError(t, err)
	assert.Equal(t, defaultOutputName, filepath.Base(path))
	assert.True(t, strings.HasPrefix(filepath.Base(filepath.Dir(path)), generatedDirPrefix))

	uri, err := ReadAsDataURI(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:video/mp4;base64,"))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err))
}

func TestEncode_ResizesMismatchedFrames(t *testing.T) {
	root := t.TempDir()
	rec := &writerRecorder{}
	enc := NewEncoder(sizeRasterizer{}, rec.factory, root, testutil.NewTestLogger(t))

	figs := append(frames(1, 40, 20), frames(1, 80, 10)...)
	_, err := enc.Encode(context.Background(), figs, 1, filepath.Join(root, "v.mp4"))
	require.NoError(t, err)

	require.Len(t, rec.opened[0].sizes, 2)
	assert.Equal(t, image.Pt(40, 20), rec.opened[0].sizes[1])
}

func TestEncode_SkipsFramesThatFailToRasterize(t *testing.T) {
	root := t.TempDir()
	rec := &writerRecorder{}
	enc := NewEncoder(sizeRasterizer{failTitle: "f1"}, rec.factory, root, testutil.NewTestLogger(t))

	_, err := enc.Encode(context.Background(), frames(4, 16, 16), 10, filepath.Join(root, "v.mp4"))
	require.NoError(t, err)
	assert.Len(t, rec.opened[0].sizes, 3)
}

func TestEncode_Failures(t *testing.T) {
	root := t.TempDir()

	t.Run("no frames", func(t *testing.T) {
		rec := &writerRecorder{}
		enc := NewEncoder(sizeRasterizer{}, rec.factory, root, testutil.NewTestLogger(t))
		_, err := enc.Encode(context.Background(), nil, 10, "")
		assert.ErrorIs(t, err, ErrNoFrames)
		assert.Empty(t, rec.opened)
	})

	t.Run("every frame fails", func(t *testing.T) {
		rec := &writerRecorder{}
		enc := NewEncoder(sizeRasterizer{failTitle: "f0"}, rec.factory, root, testutil.NewTestLogger(t))
		_, err := enc.Encode(context.Background(), frames(1, 8, 8), 10, "")
		assert.ErrorIs(t, err, ErrNoFrames)
		assert.Empty(t, rec.opened)
	})

	t.Run("unreadable first frame", func(t *testing.T) {
		rec := &writerRecorder{}
		enc := NewEncoder(sizeRasterizer{garbage: true}, rec.factory, root, testutil.NewTestLogger(t))
		_, err := enc.Encode(context.Background(), frames(2, 8, 8), 10, "")
		assert.ErrorIs(t, err, ErrUnreadableFrame)
		assert.Empty(t, rec.opened, "writer must not be opened")
	})

	t.Run("cancelled", func(t *testing.T) {
		rec := &writerRecorder{}
		enc := NewEncoder(sizeRasterizer{}, rec.factory, root, testutil.NewTestLogger(t))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := enc.Encode(ctx, frames(2, 8, 8), 10, "")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("bad fps", func(t *testing.T) {
		enc := NewEncoder(sizeRasterizer{}, (&writerRecorder{}).factory, root, testutil.NewTestLogger(t))
		_, err := enc.Encode(context.Background(), frames(1, 8, 8), 0, "")
		assert.Error(t, err)
	})

	assert.Empty(t, frameDirs(t, root))
}

func TestFFmpegArgs(t *testing.T) {
	args := ffmpegArgs("/tmp/out.mp4", 0.5, 1281, 721)
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-framerate 0.5")
	assert.Contains(t, joined, "scale=1280:720")
	assert.Contains(t, joined, "-r 1")
	assert.Equal(t, "/tmp/out.mp4", args[len(args)-1])
}

func TestNewFFmpegWriter_MissingBinary(t *testing.T) {
	_, err := NewFFmpegWriter(context.Background(), "definitely-not-ffmpeg-binary", "/tmp/x.mp4", 1, 2, 2)
	assert.ErrorIs(t, err, ErrEncoderUnavailable)
}
