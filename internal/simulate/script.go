package simulate

import (
	"crypto/rand"
	"math"
	"math/big"
)

const randomFloatDivisor = 1000000

// Span is a run of frames [Start, End) in which the cat is in view.
type Span struct {
	Start int
	End   int
}

// Script is the presence schedule of the scripted camera.
type Script struct {
	Spans  []Span
	Frames int
}

// getRandomFloat returns a random float64 in [0, 1) using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// BuildScript lays out cfg.Visits visits separated by cfg.Gap, with a gap
// before the first and after the last one.
func BuildScript(cfg *Config) Script {
	gap := frames(cfg.Gap.Seconds(), cfg.FPS)
	var s Script
	at := gap
	for i := 0; i < cfg.Visits; i++ {
		scale := 1.0
		if cfg.Jitter > 0 {
			scale = 1 - cfg.Jitter/2 + cfg.Jitter*getRandomFloat()
		}
		n := frames(cfg.Visit.Seconds()*scale, cfg.FPS)
		s.Spans = append(s.Spans, Span{Start: at, End: at + n})
		at += n + gap
	}
	s.Frames = at
	return s
}

// Present reports whether the cat is in view on frame i.
func (s Script) Present(i int) bool {
	for _, sp := range s.Spans {
		if i >= sp.Start && i < sp.End {
			return true
		}
	}
	return false
}

func frames(seconds, fps float64) int {
	return max(1, int(math.Round(seconds*fps)))
}
