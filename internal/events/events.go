// Package events normalizes inbound engagement signals from the mail provider.
package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"cv-status/internal/apperr"
)

type Kind string

const (
	KindDelivered    Kind = "delivered"
	KindOpened       Kind = "opened"
	KindClicked      Kind = "clicked"
	KindBounced      Kind = "bounced"
	KindUnsubscribed Kind = "unsubscribed"
	KindUnknown      Kind = "unknown"
)

// TokenArg is the custom argument carrying the campaign tracking token.
const TokenArg = "tracking_token"

// Event is one provider notification in provider-neutral form.
type Event struct {
	Kind      Kind            `json:"kind"`
	RawKind   string          `json:"raw_kind"`
	Recipient string          `json:"recipient"`
	Token     string          `json:"token,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	IP        string          `json:"ip,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
	URL       string          `json:"url,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Raw       json.RawMessage `json:"-"`
}

// MapKind folds SendGrid event names onto the internal vocabulary.
func MapKind(raw string) Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "delivered":
		return KindDelivered
	case "open":
		return KindOpened
	case "click":
		return KindClicked
	case "bounce", "dropped":
		return KindBounced
	case "unsubscribe", "group_unsubscribe", "spamreport":
		return KindUnsubscribed
	}
	return KindUnknown
}

type sendGridEvent struct {
	Event       string `json:"event"`
	Email       string `json:"email"`
	Timestamp   int64  `json:"timestamp"`
	SGMessageID string `json:"sg_message_id"`
	IP          string `json:"ip"`
	UserAgent   string `json:"useragent"`
	URL         string `json:"url"`
	Reason      string `json:"reason"`
	Token       string `json:"tracking_token"`
}

// ParseSendGridEvents decodes an Event Webhook body. SendGrid posts an array; a single
// object is accepted too.
func ParseSendGridEvents(body []byte) ([]Event, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, apperr.Validation("empty webhook body")
	}

	var raws []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, apperr.Validationf("invalid webhook payload: %v", err)
		}
	} else {
		raws = []json.RawMessage{body}
	}

	out := make([]Event, 0, len(raws))
	for _, raw := range raws {
		var sg sendGridEvent
		if err := json.Unmarshal(raw, &sg); err != nil {
			return nil, apperr.Validationf("invalid webhook event: %v", err)
		}
		ev := Event{
			Kind:      MapKind(sg.Event),
			RawKind:   sg.Event,
			Recipient: strings.TrimSpace(sg.Email),
			Token:     strings.TrimSpace(sg.Token),
			MessageID: messageIDPrefix(sg.SGMessageID),
			IP:        sg.IP,
			UserAgent: sg.UserAgent,
			URL:       sg.URL,
			Reason:    sg.Reason,
			Raw:       raw,
		}
		if sg.Timestamp > 0 {
			ev.Timestamp = time.Unix(sg.Timestamp, 0).UTC()
		}
		out = append(out, ev)
	}
	return out, nil
}

// messageIDPrefix trims the ".filterNNNN..." suffix SendGrid appends to the X-Message-Id
// it returned at send time.
func messageIDPrefix(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}
