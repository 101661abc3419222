package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/spraycam/internal/adapters/actuator"
	"github.com/okian/spraycam/internal/adapters/repository"
	service "github.com/okian/spraycam/internal/app"
	"github.com/okian/spraycam/internal/config"
	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// pacedSource yields a frame every interval with the cat always in view.
type pacedSource struct {
	interval time.Duration
	closed   bool
}

func (s *pacedSource) NextFrame(ctx context.Context) (model.Frame, error) {
	select {
	case <-ctx.Done():
		return model.Frame{}, ctx.Err()
	case <-time.After(s.interval):
	}
	return model.Frame{Raw: model.RawFrame{Width: 1, Height: 1, Data: []byte{1, 2, 3}}, Present: true}, nil
}

func (s *pacedSource) Close() error {
	s.closed = true
	return nil
}

type memoryClips struct {
	mu        sync.Mutex
	written   []string
	discarded int
}

func (c *memoryClips) Write(_ context.Context, ev model.Event, frames []model.RawFrame, fps int) (model.Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, ev.ID)
	return model.Clip{Path: ev.ID + ".mp4", Frames: len(frames), FPS: fps}, nil
}

func (c *memoryClips) Discard(model.Clip) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discarded++
	return nil
}

func (c *memoryClips) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.written)
}

func serviceConfig() *config.Config {
	cfg := config.New()
	cfg.InitialRateEstimate = 4
	cfg.VideoWindowSeconds = 0.5
	cfg.EventLeadSeconds = 0
	cfg.OnPressDuration = 5 * time.Millisecond
	cfg.SprayDuration = 5 * time.Millisecond
	cfg.OffPressDuration = 5 * time.Millisecond
	return cfg
}

func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestServiceStart(t *testing.T) {
	Convey("Given a service without a frame source", t, func() {
		svc := service.New(config.New())
		So(errors.Is(svc.Start(context.Background()), service.ErrNoFrameSource), ShouldBeTrue)
		So(svc.Stop(context.Background()), ShouldBeNil)
		So(svc.Status().State, ShouldEqual, "idle")
	})

	Convey("Given a service without an event log", t, func() {
		svc := service.New(config.New(), service.WithFrameSource(&pacedSource{interval: time.Millisecond}))
		So(errors.Is(svc.Start(context.Background()), service.ErrNoEventLog), ShouldBeTrue)
	})
}

func TestServiceEventPipeline(t *testing.T) {
	Convey("Given a service wired with a paced source, mock actuator and sqlite log", t, func() {
		store, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "events.db"))
		So(err, ShouldBeNil)
		src := &pacedSource{interval: 5 * time.Millisecond}
		clips := &memoryClips{}
		mock := actuator.NewMock(actuator.WithLogger(logger.Nop()))
		svc := service.New(serviceConfig(),
			service.WithFrameSource(src),
			service.WithActuator(mock),
			service.WithClipWriter(clips),
			service.WithEventLog(store),
			service.WithLogger(logger.Nop()),
		)

		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		So(errors.Is(svc.Start(ctx), service.ErrAlreadyStarted), ShouldBeTrue)

		Convey("When the cat stays in view", func() {
			captured := waitUntil(5*time.Second, func() bool {
				n, err := store.Count(ctx)
				return err == nil && n >= 1 && clips.count() >= 1
			})
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			stats := svc.GetStats()
			So(svc.Stop(stopCtx), ShouldBeNil)

			Convey("Then the event was actuated, recorded and captured", func() {
				So(captured, ShouldBeTrue)
				So(mock.Activations(), ShouldBeGreaterThanOrEqualTo, 1)
				So(stats["started"], ShouldEqual, true)
				So(stats["totalEvents"], ShouldBeGreaterThanOrEqualTo, 1)
				So(clips.discarded, ShouldEqual, clips.count())
				So(src.closed, ShouldBeTrue)
			})

			Convey("Then the status reports processed frames", func() {
				st := svc.Status()
				So(st.FramesProcessed, ShouldBeGreaterThan, 0)
				So(st.EventsTriggered, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
