package simulate

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
)

// Result is the outcome of matching recorded events to visits.
type Result struct {
	Matched    int
	Missed     int
	Unexpected int
	Overlaps   int
}

// OK reports whether every visit produced exactly one event and no two
// events were closer than the capture window.
func (r Result) OK() bool {
	return r.Missed == 0 && r.Unexpected == 0 && r.Overlaps == 0
}

// Verify matches events one to one against visits. An event belongs to a
// visit when it started between the visit's first frame minus tolerance and
// its last frame plus tolerance. Consecutive events closer than minSpacing
// count as overlaps.
func Verify(visits []Observed, events []model.EventRecord, tolerance, minSpacing time.Duration) Result {
	sorted := append([]model.EventRecord(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartedAt.Before(sorted[j].StartedAt) })

	var r Result
	matched := make([]bool, len(visits))
	for _, ev := range sorted {
		k := visitFor(visits, ev.StartedAt, tolerance)
		if k < 0 || matched[k] {
			r.Unexpected++
			continue
		}
		matched[k] = true
		r.Matched++
	}
	r.Missed = len(visits) - r.Matched

	for i := 1; i < len(sorted); i++ {
		if sorted[i].StartedAt.Sub(sorted[i-1].StartedAt) < minSpacing {
			r.Overlaps++
		}
	}
	return r
}

func visitFor(visits []Observed, t time.Time, tolerance time.Duration) int {
	for i, v := range visits {
		if v.Start.IsZero() {
			continue
		}
		if !t.Before(v.Start.Add(-tolerance)) && !t.After(v.End.Add(tolerance)) {
			return i
		}
	}
	return -1
}

// check turns a failed result into an error.
func (r Result) check() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: matched=%d missed=%d unexpected=%d overlaps=%d",
		ErrVerification, r.Matched, r.Missed, r.Unexpected, r.Overlaps)
}
