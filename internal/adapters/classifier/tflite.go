// Package classifier decides whether the target animal is in a frame using a
// TensorFlow Lite SSD detection model.
package classifier

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	tflite "github.com/tphakala/go-tflite"
	"gocv.io/x/gocv"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

// SSD postprocess output order.
const (
	outputBoxes   = 0
	outputClasses = 1
	outputScores  = 2
)

// TFLite runs an SSD detection model on camera frames. Calls are serialized;
// the interpreter is not safe for concurrent use.
type TFLite struct {
	mu     sync.Mutex
	model  *tflite.Model
	interp *tflite.Interpreter

	width, height int
	inputType     tflite.TensorType

	target  int
	minConf float64
	log     logger.Logger
}

// Open loads the model at path and allocates its tensors.
func Open(path string, opts ...Option) (*TFLite, error) {
	o := options{target: defaultTargetClass, minConf: defaultMinConfidence, threads: defaultThreads}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get().Named("classifier")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	m := tflite.NewModel(data)
	if m == nil {
		return nil, fmt.Errorf("%w: cannot parse %s", ErrModelLoad, path)
	}

	iopts := tflite.NewInterpreterOptions()
	iopts.SetNumThread(o.threads)
	iopts.SetErrorReporter(func(msg string, _ any) {
		o.log.Error(context.Background(), "tflite error", logger.String("message", msg))
	}, nil)
	defer iopts.Delete()

	interp := tflite.NewInterpreter(m, iopts)
	if interp == nil {
		m.Delete()
		return nil, fmt.Errorf("%w: cannot create interpreter", ErrModelLoad)
	}
	if status := interp.AllocateTensors(); status != tflite.OK {
		interp.Delete()
		m.Delete()
		return nil, fmt.Errorf("%w: tensor allocation failed", ErrModelLoad)
	}

	in := interp.GetInputTensor(0)
	if in == nil || in.NumDims() != 4 || interp.GetOutputTensorCount() <= outputScores {
		interp.Delete()
		m.Delete()
		return nil, fmt.Errorf("%w: %s is not an SSD detection model", ErrModelLoad, path)
	}

	c := &TFLite{
		model:     m,
		interp:    interp,
		height:    in.Dim(1),
		width:     in.Dim(2),
		inputType: in.Type(),
		target:    o.target,
		minConf:   o.minConf,
		log:       o.log,
	}
	c.log.Info(context.Background(), "model loaded",
		logger.String("path", path),
		logger.Int("width", c.width),
		logger.Int("height", c.height),
		logger.Int("threads", o.threads))
	return c, nil
}

// InputSize returns the model input dimensions.
func (c *TFLite) InputSize() (width, height int) { return c.width, c.height }

// Classify reports whether the target class is in raw (BGR, 8 bits per
// channel) and the best matching score.
func (c *TFLite) Classify(ctx context.Context, raw model.RawFrame) (bool, float64, error) {
	if raw.Empty() {
		return false, 0, ErrEmptyFrame
	}
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	input, err := prepare(raw, c.width, c.height)
	if err != nil {
		return false, 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	in := c.interp.GetInputTensor(0)
	switch c.inputType {
	case tflite.UInt8:
		copy(in.UInt8s(), input)
	case tflite.Float32:
		dst := in.Float32s()
		for i, v := range input {
			if i >= len(dst) {
				break
			}
			dst[i] = (float32(v) - 127.5) / 127.5
		}
	default:
		return false, 0, fmt.Errorf("%w: input type %v", ErrInference, c.inputType)
	}

	if status := c.interp.Invoke(); status != tflite.OK {
		return false, 0, fmt.Errorf("%w: invoke status %v", ErrInference, status)
	}
	classes := c.interp.GetOutputTensor(outputClasses).Float32s()
	scores := c.interp.GetOutputTensor(outputScores).Float32s()
	present, score := Present(classes, scores, c.target, c.minConf)
	return present, score, nil
}

// Close releases the interpreter and model.
func (c *TFLite) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interp != nil {
		c.interp.Delete()
		c.interp = nil
	}
	if c.model != nil {
		c.model.Delete()
		c.model = nil
	}
	return nil
}

// Present reports whether any detection of class target scores above minConf,
// and returns the best score seen for that class.
func Present(classes, scores []float32, target int, minConf float64) (bool, float64) {
	n := min(len(classes), len(scores))
	best := 0.0
	for i := range n {
		if int(math.Round(float64(classes[i]))) != target {
			continue
		}
		best = max(best, float64(scores[i]))
	}
	return best > minConf, best
}

// prepare converts a BGR frame to a packed RGB image of the model input size.
func prepare(raw model.RawFrame, width, height int) ([]byte, error) {
	if len(raw.Data) != raw.Width*raw.Height*3 {
		return nil, fmt.Errorf("%w: %dx%d frame with %d bytes", ErrEmptyFrame, raw.Width, raw.Height, len(raw.Data))
	}
	src, err := gocv.NewMatFromBytes(raw.Height, raw.Width, gocv.MatTypeCV8UC3, raw.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	defer src.Close()

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(src, &rgb, gocv.ColorBGRToRGB)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(rgb, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)

	return resized.ToBytes(), nil
}
