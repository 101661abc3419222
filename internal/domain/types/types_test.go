package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
	types "github.com/okian/spraycam/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEventEntry(t *testing.T) {
	Convey("Given a stored event record", t, func() {
		started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		rec := model.EventRecord{EventID: "ev-1", StartedAt: started, Rate: 5, CaptureDelay: 50}

		Convey("When it is converted to an entry", func() {
			entry := types.NewEventEntry(rec)

			Convey("Then the fields carry over with an RFC3339 timestamp", func() {
				So(entry.EventID, ShouldEqual, "ev-1")
				So(entry.StartedAt, ShouldEqual, "2026-03-14T09:26:53Z")
				So(entry.Rate, ShouldEqual, 5)
				So(entry.CaptureDelay, ShouldEqual, 50)
			})

			Convey("Then the JSON uses snake_case keys", func() {
				raw, err := json.Marshal(entry)
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual,
					`{"event_id":"ev-1","started_at":"2026-03-14T09:26:53Z","rate":5,"capture_delay":50}`)
			})
		})
	})
}

func TestDailyEntries(t *testing.T) {
	Convey("Given day counts", t, func() {
		days := []model.DailyCount{{Day: "2026-03-13", Count: 0}, {Day: "2026-03-14", Count: 3}}

		Convey("Then the order and counts are preserved", func() {
			out := types.NewDailyEntries(days)
			So(out, ShouldResemble, []types.DailyEntry{{Day: "2026-03-13", Count: 0}, {Day: "2026-03-14", Count: 3}})
		})

		Convey("Then nil input yields an empty slice", func() {
			out := types.NewDailyEntries(nil)
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}

func TestStatusJSON(t *testing.T) {
	Convey("Given an idle status without an event", t, func() {
		raw, err := json.Marshal(types.Status{State: "idle", AppliedRate: 4})
		So(err, ShouldBeNil)

		Convey("Then the event id and message are omitted", func() {
			So(string(raw), ShouldContainSubstring, `"state":"idle"`)
			So(string(raw), ShouldContainSubstring, `"applied_rate":4`)
			So(string(raw), ShouldNotContainSubstring, "event_id")
			So(string(raw), ShouldNotContainSubstring, "message")
		})
	})
}
