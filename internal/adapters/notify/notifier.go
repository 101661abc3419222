// Package notify delivers captured clips to the user and announces events to
// other systems.
package notify

import (
	"context"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
	"github.com/okian/spraycam/pkg/metrics"
)

// Delivery results used in logs and metrics.
const (
	ResultSent     = "sent"
	ResultFallback = "fallback"
	ResultFailed   = "failed"
	ResultDisabled = "disabled"
)

// Uploader publishes a local file and returns a URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (string, error)
}

// Sender delivers a short text message.
type Sender interface {
	Send(ctx context.Context, title, message string) error
}

// ClipNotifier uploads a clip and sends its link. When the upload fails the
// fallback text is sent instead so the user still learns about the event.
type ClipNotifier struct {
	uploader Uploader
	sender   Sender
	title    string
	text     string
	fallback string
	log      logger.Logger
	// failures are logged at most this often
	failLog *rate.Limiter
}

// NewClipNotifier creates a notifier. A nil uploader sends the text without a
// link; a nil sender disables delivery.
func NewClipNotifier(uploader Uploader, sender Sender, opts ...Option) *ClipNotifier {
	n := &ClipNotifier{
		uploader: uploader,
		sender:   sender,
		title:    "spraycam",
		text:     "The cat is at it again...",
		fallback: "The cat is at it again... but there was an issue with the media upload",
		failLog:  rate.NewLimiter(rate.Every(defaultFailureLogInterval), 3),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logger.Get().Named("notify")
	}
	return n
}

// Deliver sends the notification for ev and reports whether a message went out.
func (n *ClipNotifier) Deliver(ctx context.Context, ev model.Event, clip model.Clip) bool {
	if n.sender == nil {
		metrics.RecordDelivery(ResultDisabled)
		return false
	}

	message, result := n.text, ResultSent
	if n.uploader != nil {
		url, err := n.uploader.Upload(ctx, clip.Path, ev.ID+filepath.Ext(clip.Path))
		if err != nil {
			metrics.RecordErrorByComponent("notify", "upload")
			n.warn(ctx, "clip upload failed, sending fallback notice", ev, err)
			message, result = n.fallback, ResultFallback
		} else {
			message = n.text + "\n" + url
		}
	}

	if err := n.sender.Send(ctx, n.title, message); err != nil {
		metrics.RecordDelivery(ResultFailed)
		metrics.RecordErrorByComponent("notify", "send")
		n.warn(ctx, "notification failed", ev, err)
		return false
	}
	metrics.RecordDelivery(result)
	n.log.Info(ctx, "notification sent", logger.String("event_id", ev.ID), logger.String("result", result))
	return true
}

func (n *ClipNotifier) warn(ctx context.Context, msg string, ev model.Event, err error) {
	if n.failLog.Allow() {
		n.log.Warn(ctx, msg, logger.String("event_id", ev.ID), logger.Error(err))
	}
}
