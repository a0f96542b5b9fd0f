package events

import (
	"context"
	"fmt"
	"log/slog"

	"cv-status/internal/apperr"
)

// Applier records one normalized event against stored campaigns.
type Applier interface {
	RecordExternalEvent(ctx context.Context, ev Event) error
}

// BatchResult counts what happened to each event of a webhook post.
type BatchResult struct {
	Received  int      `json:"received"`
	Processed int      `json:"processed"`
	Ignored   int      `json:"ignored"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Gateway feeds provider webhooks into the tracker one event at a time, so a single
// bad event never rejects the batch.
type Gateway struct {
	applier Applier
	logger  *slog.Logger
}

func NewGateway(applier Applier, logger *slog.Logger) *Gateway {
	return &Gateway{applier: applier, logger: logger}
}

// HandleSendGrid parses and applies an Event Webhook body. Only an unparseable body is
// an error.
func (g *Gateway) HandleSendGrid(ctx context.Context, body []byte) (*BatchResult, error) {
	evs, err := ParseSendGridEvents(body)
	if err != nil {
		return nil, err
	}
	res := &BatchResult{Received: len(evs)}
	for i, ev := range evs {
		if ev.Kind == KindUnknown {
			g.logger.Debug("ignoring webhook event", "event", ev.RawKind)
			res.Ignored++
			continue
		}
		err := g.applier.RecordExternalEvent(ctx, ev)
		switch {
		case err == nil:
			res.Processed++
		case apperr.Is(err, apperr.CodeNotFound):
			// Events for mail sent by other systems on the same account.
			g.logger.Info("webhook event matches no campaign", "event", ev.RawKind, "recipient", ev.Recipient)
			res.Ignored++
		default:
			g.logger.Warn("webhook event failed", "index", i, "event", ev.RawKind, "error", err)
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("event %d (%s): %v", i, ev.RawKind, err))
		}
	}
	return res, nil
}
