package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeClient struct {
	mqtt.Client
	open         bool
	token        *fakeToken
	topic        string
	qos          byte
	payload      []byte
	disconnected bool
}

func (c *fakeClient) IsConnectionOpen() bool { return c.open }

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.topic, c.qos = topic, qos
	c.payload, _ = payload.([]byte)
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestMQTTPublisher(t *testing.T) {
	rec := model.EventRecord{
		EventID:      "ev-1",
		StartedAt:    time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Rate:         5,
		CaptureDelay: 50,
	}

	Convey("Given a connected publisher", t, func() {
		client := &fakeClient{open: true, token: doneToken(nil)}
		p := newMQTTPublisher(client, "spraycam/events", logger.Nop())

		Convey("When an event is published", func() {
			err := p.Publish(context.Background(), rec)

			Convey("Then the JSON entry goes to the topic", func() {
				So(err, ShouldBeNil)
				So(client.topic, ShouldEqual, "spraycam/events")
				So(client.qos, ShouldEqual, 1)
				var got map[string]any
				So(json.Unmarshal(client.payload, &got), ShouldBeNil)
				So(got["event_id"], ShouldEqual, "ev-1")
				So(got["capture_delay"], ShouldEqual, 50.0)
			})
		})

		Convey("When the broker rejects the message", func() {
			client.token = doneToken(errors.New("not authorized"))
			So(p.Publish(context.Background(), rec), ShouldNotBeNil)
		})

		Convey("When the token never completes", func() {
			client.token = &fakeToken{done: make(chan struct{})}
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Convey("Then the context error is returned", func() {
				So(errors.Is(p.Publish(ctx, rec), context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			So(p.Close(), ShouldBeNil)
			So(client.disconnected, ShouldBeTrue)
		})
	})

	Convey("Given a disconnected publisher", t, func() {
		p := newMQTTPublisher(&fakeClient{}, "t", logger.Nop())
		So(errors.Is(p.Publish(context.Background(), rec), ErrNotConnected), ShouldBeTrue)
	})
}
