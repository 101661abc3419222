package config_test

import (
	"testing"
	"time"

	"github.com/okian/spraycam/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should carry the stock deployment defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TriggerRatio, convey.ShouldEqual, 0.25)
			convey.So(cfg.DetectionWindowSeconds, convey.ShouldEqual, 1)
			convey.So(cfg.VideoWindowSeconds, convey.ShouldEqual, 12)
			convey.So(cfg.RateWindowSeconds, convey.ShouldEqual, 10)
			convey.So(cfg.InitialRateEstimate, convey.ShouldEqual, 4)
			convey.So(cfg.EventLeadSeconds, convey.ShouldEqual, -2)
			convey.So(cfg.TargetClassIndex, convey.ShouldEqual, 16)
			convey.So(cfg.MinConfidence, convey.ShouldEqual, 0.65)
			convey.So(cfg.ActuatorEnabled, convey.ShouldBeTrue)
			convey.So(cfg.CaptureEnabled, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the spray pattern lasts four seconds", func() {
			p := cfg.SprayPattern()
			convey.So(p.OnPress, convey.ShouldEqual, 2500*time.Millisecond)
			convey.So(p.Spray, convey.ShouldEqual, time.Second)
			convey.So(p.OffPress, convey.ShouldEqual, 500*time.Millisecond)
			convey.So(p.Total(), convey.ShouldEqual, 4*time.Second)
		})
	})
}
