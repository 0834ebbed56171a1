package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Joke-rk/line-cloud-bot/internal/classifier"
	"github.com/Joke-rk/line-cloud-bot/internal/line"
	"github.com/Joke-rk/line-cloud-bot/internal/logging"
	"github.com/Joke-rk/line-cloud-bot/internal/preprocess"
)

// User-visible reply texts.
const (
	DefaultPromptText  = "Send me a photo of a cloud and I'll tell you what kind it is 🌤️"
	ModelLoadingText   = "The cloud model is still loading, please try again in a moment."
	AnalysisFailedText = "Sorry, I couldn't analyze that image. Please send another photo."
)

// ContentFetcher retrieves raw attachment bytes from the platform's
// content store.
type ContentFetcher interface {
	GetMessageContent(ctx context.Context, messageID string) ([]byte, error)
}

// Replier delivers one text reply addressed by reply token.
type Replier interface {
	ReplyMessage(ctx context.Context, replyToken, text string) error
}

// Classifier gates on model readiness and turns a preprocessed tensor into
// the best prediction.
type Classifier interface {
	Ready() bool
	Classify(ctx context.Context, tensor []float32) (classifier.Prediction, error)
}

// Dispatcher fans webhook events out concurrently and routes each through
// the classification pipeline or the default-reply path. Every event is
// isolated: a failure, malformed payload, or panic in one never affects
// its siblings.
type Dispatcher struct {
	fetcher ContentFetcher
	replier Replier
	model   Classifier
	logger  *zap.Logger
	stats   stats
}

// NewDispatcher constructs a dispatcher over its collaborators.
func NewDispatcher(fetcher ContentFetcher, replier Replier, model Classifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		fetcher: fetcher,
		replier: replier,
		model:   model,
		logger:  logger.Named("dispatcher"),
	}
}

// HandleEvents processes every event of one webhook batch concurrently and
// blocks until all of them reached a terminal state. The webhook handler
// acknowledges first and runs this in a detached goroutine; tests call it
// directly. The returned slice is index-aligned with events.
func (d *Dispatcher) HandleEvents(ctx context.Context, events []line.Event) []error {
	results := make([]error, len(events))

	var wg sync.WaitGroup
	for i := range events {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.handleEvent(ctx, events[i])
		}(i)
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) handleEvent(ctx context.Context, event line.Event) (err error) {
	eventID := uuid.NewString()
	opLogger := logging.WithOperation(d.logger, "dispatch.handle_event", eventID)

	defer func() {
		if r := recover(); r != nil {
			d.stats.failures.Add(1)
			opLogger.Error("event handler panicked", zap.Any("panic", r))
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()

	d.stats.received.Add(1)

	if event.ReplyToken == "" {
		// Nothing to address a reply to (e.g. unsend events).
		opLogger.Warn("event has no reply token", zap.String("event_type", event.Type))
		return nil
	}

	text := DefaultPromptText
	if event.IsImageMessage() {
		d.stats.images.Add(1)
		text = d.classifyToText(ctx, opLogger, eventID, event)
	}

	return d.reply(ctx, opLogger, eventID, event.ReplyToken, text)
}

// classifyToText walks fetch → preprocess → infer and converts the first
// stage failure into the user-visible text for that stage. Errors never
// escape: they are logged here and surfaced only as reply text.
func (d *Dispatcher) classifyToText(ctx context.Context, opLogger *zap.Logger, eventID string, event line.Event) string {
	if !d.model.Ready() {
		opLogger.Warn("classification requested before model ready")
		return ModelLoadingText
	}

	if event.Message == nil || event.Message.ID == "" {
		d.stats.failures.Add(1)
		opLogger.Warn("image event missing content id")
		return AnalysisFailedText
	}
	contentID := event.Message.ID

	data, err := d.fetcher.GetMessageContent(ctx, contentID)
	if err != nil {
		d.stats.failures.Add(1)
		opLogger.Error("content fetch failed",
			zap.String("content_id", contentID),
			zap.Error(logging.NewOperationError("dispatch.fetch_content", eventID, err)))
		return AnalysisFailedText
	}

	tensor, err := preprocess.FromImageBytes(data)
	if err != nil {
		d.stats.failures.Add(1)
		opLogger.Error("image preprocess failed",
			zap.String("content_id", contentID),
			zap.Error(logging.NewOperationError("dispatch.preprocess", eventID, err)))
		return AnalysisFailedText
	}

	prediction, err := d.model.Classify(ctx, tensor)
	if err != nil {
		d.stats.failures.Add(1)
		opLogger.Error("inference failed",
			zap.String("content_id", contentID),
			zap.Error(logging.NewOperationError("dispatch.classify", eventID, err)))
		return AnalysisFailedText
	}

	opLogger.Info("image classified",
		zap.String("content_id", contentID),
		zap.String("label", prediction.Label),
		zap.Float32("probability", prediction.Probability))
	return FormatPrediction(prediction)
}

// reply attempts delivery exactly once. A delivery failure is logged and
// the event abandoned; there is no secondary channel to notify the user.
func (d *Dispatcher) reply(ctx context.Context, opLogger *zap.Logger, eventID, replyToken, text string) error {
	if err := d.replier.ReplyMessage(ctx, replyToken, text); err != nil {
		d.stats.failures.Add(1)
		wrapped := logging.NewOperationError("dispatch.reply", eventID, err)
		opLogger.Error("reply delivery failed", zap.Error(wrapped))
		return wrapped
	}
	d.stats.replies.Add(1)
	return nil
}

// FormatPrediction renders the classification success text, probability as
// a percentage with two decimal places.
func FormatPrediction(p classifier.Prediction) string {
	return fmt.Sprintf("%s (%.2f%%)", p.Label, p.Probability*100)
}
