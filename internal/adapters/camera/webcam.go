package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/okian/spraycam/internal/domain/model"
)

// Webcam reads frames from a V4L/USB camera through OpenCV.
type Webcam struct {
	mu  sync.Mutex
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// OpenWebcam opens camera index at the requested resolution and waits warmUp
// for the sensor to settle.
func OpenWebcam(ctx context.Context, index, width, height int, warmUp time.Duration) (*Webcam, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %w", ErrCameraOpen, index, err)
	}
	if width > 0 && height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	t := time.NewTimer(warmUp)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		_ = vc.Close()
		return nil, ctx.Err()
	}
	return &Webcam{vc: vc, mat: gocv.NewMat()}, nil
}

// Read grabs the latest frame as packed BGR bytes.
func (w *Webcam) Read(ctx context.Context) (model.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return model.RawFrame{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.vc == nil {
		return model.RawFrame{}, ErrCameraOpen
	}
	if ok := w.vc.Read(&w.mat); !ok || w.mat.Empty() {
		return model.RawFrame{}, ErrFrameUnavailable
	}
	return model.RawFrame{Width: w.mat.Cols(), Height: w.mat.Rows(), Data: w.mat.ToBytes()}, nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.vc == nil {
		return nil
	}
	_ = w.mat.Close()
	err := w.vc.Close()
	w.vc = nil
	return err
}
