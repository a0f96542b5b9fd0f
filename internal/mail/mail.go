// Package mail sends rendered outreach messages through SendGrid or Gmail.
package mail

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"
)

// Message is one outbound email. TrackingToken travels as provider metadata so webhook
// events can be correlated back to the campaign.
type Message struct {
	To            string
	ToName        string
	Subject       string
	HTML          string
	Text          string
	TrackingToken string
}

// Transport delivers a message and returns the provider's message id.
// Failures are reported as TRANSPORT_ERROR.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// PixelURL is the open-tracking image address for a token.
func PixelURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/track/open/" + token + ".gif"
}

// InjectPixel places a hidden 1x1 image just before </body>, or at the end when the
// body has no closing tag.
func InjectPixel(html, pixelURL string) string {
	img := fmt.Sprintf(`<img src="%s" width="1" height="1" alt="" style="display:none;" />`, pixelURL)
	if i := strings.LastIndex(strings.ToLower(html), "</body>"); i >= 0 {
		return html[:i] + img + html[i:]
	}
	return html + img
}

func validate(msg Message) error {
	if _, err := netmail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if msg.Subject == "" {
		return fmt.Errorf("empty subject")
	}
	return nil
}
