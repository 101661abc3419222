package camera

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

type fakeReader struct {
	frames []model.RawFrame
	err    error
	closed bool
}

func (r *fakeReader) Read(context.Context) (model.RawFrame, error) {
	if r.err != nil {
		return model.RawFrame{}, r.err
	}
	if len(r.frames) == 0 {
		return model.RawFrame{}, nil
	}
	f := r.frames[0]
	r.frames = r.frames[1:]
	return f, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeClassifier struct {
	present bool
	score   float64
	err     error
}

func (c fakeClassifier) Classify(context.Context, model.RawFrame) (bool, float64, error) {
	return c.present, c.score, c.err
}

type closingClassifier struct {
	fakeClassifier
	closed bool
}

func (c *closingClassifier) Close() error {
	c.closed = true
	return errors.New("interpreter busy")
}

func frame() model.RawFrame {
	return model.RawFrame{Width: 2, Height: 2, Data: make([]byte, 12)}
}

func TestSource(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	Convey("Given a source with a working reader", t, func() {
		reader := &fakeReader{frames: []model.RawFrame{frame()}}
		s := NewSource(reader, fakeClassifier{present: true, score: 0.8})
		s.now = func() time.Time { return at }

		Convey("When a frame is read", func() {
			f, err := s.NextFrame(ctx)

			Convey("Then it carries the presence decision", func() {
				So(err, ShouldBeNil)
				So(f.Present, ShouldBeTrue)
				So(f.Score, ShouldEqual, 0.8)
				So(f.CapturedAt, ShouldEqual, at)
				So(f.Raw.Width, ShouldEqual, 2)
			})
		})

		Convey("When the reader runs dry", func() {
			_, _ = s.NextFrame(ctx)
			_, err := s.NextFrame(ctx)
			So(errors.Is(err, ErrFrameUnavailable), ShouldBeTrue)
		})

		Convey("When closed", func() {
			So(s.Close(), ShouldBeNil)
			So(reader.closed, ShouldBeTrue)
		})
	})

	Convey("Given a classifier holding resources", t, func() {
		reader := &fakeReader{}
		clf := &closingClassifier{}
		s := NewSource(reader, clf)
		err := s.Close()
		So(reader.closed, ShouldBeTrue)
		So(clf.closed, ShouldBeTrue)
		So(err, ShouldNotBeNil)
	})

	Convey("Given a failing reader", t, func() {
		s := NewSource(&fakeReader{err: errors.New("usb reset")}, fakeClassifier{})
		_, err := s.NextFrame(ctx)
		So(errors.Is(err, ErrFrameUnavailable), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "usb reset")
	})

	Convey("Given a failing classifier", t, func() {
		s := NewSource(&fakeReader{frames: []model.RawFrame{frame()}}, fakeClassifier{err: errors.New("invoke")})
		_, err := s.NextFrame(ctx)
		So(errors.Is(err, ErrFrameUnavailable), ShouldBeTrue)
	})
}

func TestClipHelpers(t *testing.T) {
	Convey("Given output sizing", t, func() {
		Convey("Then downscaling halves and keeps sides even", func() {
			w, h := outputSize(640, 480, true)
			So(w, ShouldEqual, 320)
			So(h, ShouldEqual, 240)
			w, h = outputSize(642, 486, true)
			So(w, ShouldEqual, 320)
			So(h, ShouldEqual, 242)
		})

		Convey("Then full size is kept without downscaling", func() {
			w, h := outputSize(641, 480, false)
			So(w, ShouldEqual, 640)
			So(h, ShouldEqual, 480)
		})

		Convey("Then tiny frames stay encodable", func() {
			w, h := outputSize(1, 1, true)
			So(w, ShouldEqual, 2)
			So(h, ShouldEqual, 2)
		})
	})

	Convey("Given clip naming", t, func() {
		at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		So(clipName(model.Event{ID: "ev-1"}, at), ShouldEqual, "clip_2026-03-14_09-26-53_ev-1")
		So(clipName(model.Event{}, at), ShouldEqual, "clip_2026-03-14_09-26-53")
	})

	Convey("Given ffmpeg arguments", t, func() {
		args := ffmpegArgs("in.mp4", "out.mp4")

		Convey("Then a silent track is muxed with an H.264 video", func() {
			So(args, ShouldContain, "anullsrc=channel_layout=stereo:sample_rate=44100")
			So(args, ShouldContain, "libx264")
			So(args, ShouldContain, "aac")
			So(args, ShouldContain, "-shortest")
			So(args[len(args)-1], ShouldEqual, "out.mp4")
		})
	})

	Convey("Given ffmpeg output", t, func() {
		So(lastLine([]byte("a\nb\nno such file\n")), ShouldEqual, "no such file")
		So(lastLine([]byte("single")), ShouldEqual, "single")
	})
}

func TestClipWriter(t *testing.T) {
	Convey("Given a clip writer", t, func() {
		dir := filepath.Join(t.TempDir(), "clips")
		w, err := NewClipWriter(dir,
			WithCodec("avc1", ".mkv"),
			WithDownscale(false),
			WithTranscode(false, ""),
			WithClipLogger(logger.Nop()))
		So(err, ShouldBeNil)

		Convey("Then the directory exists and options apply", func() {
			_, err := os.Stat(dir)
			So(err, ShouldBeNil)
			So(w.codec, ShouldEqual, "avc1")
			So(w.ext, ShouldEqual, ".mkv")
			So(w.downscale, ShouldBeFalse)
			So(w.ffmpeg, ShouldEqual, "ffmpeg")
		})

		Convey("When no frames are given", func() {
			_, err := w.Write(context.Background(), model.Event{ID: "ev-1"}, nil, 5)
			So(errors.Is(err, ErrNoFrames), ShouldBeTrue)
		})

		Convey("When a clip is discarded", func() {
			path := filepath.Join(dir, "x.mp4")
			So(os.WriteFile(path, []byte("x"), 0o600), ShouldBeNil)
			So(w.Discard(model.Clip{Path: path}), ShouldBeNil)
			_, err := os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)

			Convey("Then discarding again is not an error", func() {
				So(w.Discard(model.Clip{Path: path}), ShouldBeNil)
				So(w.Discard(model.Clip{}), ShouldBeNil)
			})
		})
	})
}
