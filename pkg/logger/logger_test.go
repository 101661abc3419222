package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with the default format", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get and Named return loggers", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with json", func() {
			So(InitWithFormat("json"), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
		})

		Convey("When initialized with a custom writer", func() {
			var buf bytes.Buffer
			So(InitWithWriter(&buf, "json"), ShouldBeNil)
			Get().Info(context.Background(), "hello")
			So(buf.String(), ShouldContainSubstring, `"msg":"hello"`)
			So(Init(), ShouldBeNil)
		})

		Convey("When initialized with an unknown format", func() {
			So(InitWithFormat("xml"), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		SetLevel(slog.LevelInfo)
		var buf bytes.Buffer
		log := New(&buf).Named("loop")
		ctx := context.Background()

		Convey("When logging structured fields", func() {
			log.Info(ctx, "event triggered",
				String("event_id", "ev-1"),
				Int("rate", 5),
				Bool("captured", true),
				Duration("delay", 2*time.Second),
				Error(errors.New("boom")))

			Convey("Then the fields are written next to the logger name", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "event triggered")
				So(out, ShouldContainSubstring, "logger=loop")
				So(out, ShouldContainSubstring, "event_id=ev-1")
				So(out, ShouldContainSubstring, "rate=5")
				So(out, ShouldContainSubstring, "captured=true")
				So(out, ShouldContainSubstring, "delay=2s")
				So(out, ShouldContainSubstring, "boom")
				So(out, ShouldContainSubstring, "source=logger/logger_test.go:")
			})
		})

		Convey("When names are nested", func() {
			log.Named("window").Info(ctx, "resized")
			So(buf.String(), ShouldContainSubstring, "logger=loop.window")
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			log.Info(ctx, "hidden")
			log.Warn(ctx, "shown")

			Convey("Then only warnings are written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
			So(SetLevelString("info"), ShouldBeNil)
		})
	})

	Convey("Given level strings", t, func() {
		So(SetLevelString("DEBUG"), ShouldBeNil)
		So(SetLevelString("warning"), ShouldBeNil)
		So(SetLevelString("error"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("loud"), ShouldNotBeNil)
	})

	Convey("Given a nop logger", t, func() {
		So(func() { Nop().Error(context.Background(), "dropped") }, ShouldNotPanic)
	})
}
