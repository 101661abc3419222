package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

const clipTimeLayout = "2006-01-02_15-04-05"

// ClipWriter encodes frame sequences to video files. With transcoding enabled
// the OpenCV output is re-encoded to H.264 with a silent audio track, which
// messaging apps require for inline playback.
type ClipWriter struct {
	dir       string
	codec     string
	ext       string
	downscale bool
	transcode bool
	ffmpeg    string
	now       func() time.Time
	log       logger.Logger
}

// NewClipWriter creates dir if needed and returns a writer.
func NewClipWriter(dir string, opts ...ClipOption) (*ClipWriter, error) {
	w := &ClipWriter{
		dir:       dir,
		codec:     "mp4v",
		ext:       ".mp4",
		downscale: true,
		transcode: true,
		ffmpeg:    "ffmpeg",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.Get().Named("clip")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("clip: create %s: %w", dir, err)
	}
	return w, nil
}

// Write encodes frames at fps and returns the finished clip.
func (w *ClipWriter) Write(ctx context.Context, ev model.Event, frames []model.RawFrame, fps int) (model.Clip, error) {
	if len(frames) == 0 {
		return model.Clip{}, ErrNoFrames
	}
	fps = max(1, fps)
	created := w.now()
	base := filepath.Join(w.dir, clipName(ev, created))
	raw := base + "_raw" + w.ext
	out := base + w.ext

	width, height := outputSize(frames[0].Width, frames[0].Height, w.downscale)
	if err := w.encode(ctx, raw, frames, fps, width, height); err != nil {
		_ = removeIfExists(raw)
		return model.Clip{}, err
	}

	if !w.transcode {
		if err := os.Rename(raw, out); err != nil {
			_ = removeIfExists(raw)
			return model.Clip{}, fmt.Errorf("clip: rename: %w", err)
		}
	} else {
		defer func() { _ = removeIfExists(raw) }()
		cmd := exec.CommandContext(ctx, w.ffmpeg, ffmpegArgs(raw, out)...) //nolint:gosec // binary from config, args fixed
		if msg, err := cmd.CombinedOutput(); err != nil {
			_ = removeIfExists(out)
			return model.Clip{}, fmt.Errorf("%w: %w: %s", ErrTranscode, err, lastLine(msg))
		}
	}

	w.log.Info(ctx, "clip written",
		logger.String("event_id", ev.ID),
		logger.String("path", out),
		logger.Int("frames", len(frames)),
		logger.Int("fps", fps))
	return model.Clip{Path: out, Frames: len(frames), FPS: fps, CreatedAt: created}, nil
}

// Discard removes the clip file.
func (w *ClipWriter) Discard(clip model.Clip) error {
	return removeIfExists(clip.Path)
}

func (w *ClipWriter) encode(ctx context.Context, path string, frames []model.RawFrame, fps, width, height int) error {
	vw, err := gocv.VideoWriterFile(path, w.codec, float64(fps), width, height, true)
	if err != nil {
		return fmt.Errorf("clip: open writer: %w", err)
	}
	defer vw.Close()

	size := image.Pt(width, height)
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Empty() {
			continue
		}
		if err := writeFrame(vw, f, size); err != nil {
			return fmt.Errorf("clip: frame %d: %w", i, err)
		}
	}
	return nil
}

func writeFrame(vw *gocv.VideoWriter, f model.RawFrame, size image.Point) error {
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Data)
	if err != nil {
		return err
	}
	defer mat.Close()
	if f.Width == size.X && f.Height == size.Y {
		return vw.Write(mat)
	}
	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(mat, &scaled, size, 0, 0, gocv.InterpolationArea)
	return vw.Write(scaled)
}

// outputSize halves the frame when downscaling and keeps both sides even for H.264.
func outputSize(width, height int, downscale bool) (int, int) {
	if downscale {
		width, height = width/2, height/2
	}
	return max(2, width&^1), max(2, height&^1)
}

func clipName(ev model.Event, at time.Time) string {
	name := "clip_" + at.Format(clipTimeLayout)
	if ev.ID != "" {
		name += "_" + ev.ID
	}
	return name
}

func ffmpegArgs(in, out string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-i", in,
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		out,
	}
}

func lastLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
