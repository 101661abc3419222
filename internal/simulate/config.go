package simulate

import "time"

// Config holds configuration for a simulated run.
type Config struct {
	Visits          int           // number of scripted cat visits
	FPS             float64       // frame pacing of the scripted camera
	Visit           time.Duration // nominal time the cat stays in view
	Gap             time.Duration // quiet time before, between and after visits
	Jitter          float64       // visit length varies by +/- Jitter/2 (0 disables)
	DetectionWindow time.Duration
	VideoWindow     time.Duration
	Spray           time.Duration // total mock actuator sequence
	DBPath          string        // event log; a temporary file when empty
	OutputFile      string        // JSON report; skipped when empty
	LogFile         string        // log copy; console only when empty
	Verbose         bool
}

// Validate checks that the schedule leaves room for one event per visit: the
// cat must be gone, and out of the detection window, by the time the clip is
// captured, and the next visit must start after that.
func (c *Config) Validate() error {
	switch {
	case c.Visits < 1:
		return ErrNoVisits
	case c.FPS <= 0:
		return ErrBadRate
	case c.Visit <= c.DetectionWindow/2:
		return ErrVisitTooShort
	case time.Duration(float64(c.Visit)*(1+c.Jitter/2))+c.DetectionWindow > c.VideoWindow:
		return ErrVisitTooLong
	case c.Gap < c.VideoWindow+c.DetectionWindow || c.Gap < c.Spray:
		return ErrGapTooShort
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	RunID           string        `json:"run_id"`
	Visits          int           `json:"visits"`
	FramesEmitted   int           `json:"frames_emitted"`
	FramesProcessed uint64        `json:"frames_processed"`
	FramesSkipped   uint64        `json:"frames_skipped"`
	EventsTriggered uint64        `json:"events_triggered"`
	EventsRecorded  int           `json:"events_recorded"`
	Activations     int64         `json:"activations"`
	ClipsWritten    int           `json:"clips_written"`
	Deliveries      int           `json:"deliveries"`
	Matched         int           `json:"matched"`
	Missed          int           `json:"missed"`
	Unexpected      int           `json:"unexpected"`
	Overlaps        int           `json:"overlaps"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        time.Duration `json:"duration"`
}
