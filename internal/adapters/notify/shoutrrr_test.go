package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestShoutrrrSender(t *testing.T) {
	Convey("Given shoutrrr sender construction", t, func() {
		Convey("When no URLs are configured", func() {
			s, err := NewShoutrrrSender(nil, time.Second)

			Convey("Then it is rejected", func() {
				So(s, ShouldBeNil)
				So(errors.Is(err, ErrNoURLs), ShouldBeTrue)
			})
		})

		Convey("When a URL has an unknown scheme", func() {
			_, err := NewShoutrrrSender([]string{"carrierpigeon://coop"}, time.Second)

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the logger service is configured", func() {
			s, err := NewShoutrrrSender([]string{"logger://"}, time.Second)
			So(err, ShouldBeNil)

			Convey("Then messages are delivered", func() {
				So(s.Services(), ShouldEqual, 1)
				So(s.Send(context.Background(), "spraycam", "hello"), ShouldBeNil)
			})
		})
	})
}
