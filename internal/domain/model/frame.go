package model

import "time"

// RawFrame is an uncompressed BGR24 image. Producers never mutate Data after
// handing the frame out, so snapshots may share it.
type RawFrame struct {
	Width  int
	Height int
	Data   []byte
}

// Empty reports whether the frame carries no pixels.
func (f RawFrame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Data) == 0
}

// Frame is one classified sample delivered to the control loop.
type Frame struct {
	Raw        RawFrame
	Present    bool    // target class detected above the confidence threshold
	Score      float64 // best score for the target class
	CapturedAt time.Time
}

// Clip is an encoded video file ready for delivery.
type Clip struct {
	Path      string
	Frames    int
	FPS       int
	CreatedAt time.Time
}

// SprayPattern is the on/spray/off press sequence driven on the actuator pin.
type SprayPattern struct {
	OnPress  time.Duration
	Spray    time.Duration
	OffPress time.Duration
}

// Total returns the duration of the whole sequence.
func (p SprayPattern) Total() time.Duration {
	return p.OnPress + p.Spray + p.OffPress
}
